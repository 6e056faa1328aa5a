package main

import "github.com/vietddude/ordindexer/internal/cli"

func main() {
	cli.Execute()
}
