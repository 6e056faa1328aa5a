package config

import (
	"github.com/vietddude/ordindexer/internal/indexing/pipeline"
	"github.com/vietddude/ordindexer/internal/indexing/protocol"
	"github.com/vietddude/ordindexer/internal/infra/blockstore"
	"github.com/vietddude/ordindexer/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server     ServerConfig      `yaml:"server"`
	Logging    LoggingConfig     `yaml:"logging"`
	Database   postgres.Config   `yaml:"database"`
	BlockStore blockstore.Config `yaml:"block_store"`
	Pipeline   pipeline.Config   `yaml:"pipeline"`
	Protocol   protocol.Config   `yaml:"protocol"`
	Migrations string            `yaml:"migrations"`
}

// ServerConfig holds the metrics HTTP listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
