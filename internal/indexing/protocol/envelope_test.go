package protocol

import (
	"bytes"
	"testing"
)

// buildEnvelope assembles a minimal inscription envelope witness element.
func buildEnvelope(contentType string, body []byte) []byte {
	var buf bytes.Buffer
	buf.Write(envelopeMarker)
	buf.WriteByte(tagContentType)
	buf.WriteByte(byte(len(contentType)))
	buf.WriteString(contentType)
	buf.WriteByte(bodySeparator)
	buf.Write(body)
	buf.WriteByte(opEndIf)
	return buf.Bytes()
}

func TestParseEnvelope(t *testing.T) {
	witness := [][]byte{
		{0xde, 0xad}, // unrelated element
		buildEnvelope("text/plain;charset=utf-8", []byte("hello")),
	}

	env, ok := parseEnvelope(witness)
	if !ok {
		t.Fatal("Expected envelope to parse")
	}
	if env.ContentType != "text/plain;charset=utf-8" {
		t.Errorf("Expected content type text/plain;charset=utf-8, got %s", env.ContentType)
	}
	if string(env.Body) != "hello" {
		t.Errorf("Expected body hello, got %q", env.Body)
	}
	if env.ContentLength != 5 {
		t.Errorf("Expected content length 5, got %d", env.ContentLength)
	}
}

func TestParseEnvelope_NoMarker(t *testing.T) {
	witness := [][]byte{{0x01, 0x02, 0x03}}
	if _, ok := parseEnvelope(witness); ok {
		t.Error("Expected no envelope without marker")
	}
}

func TestParseEnvelope_Malformed(t *testing.T) {
	cases := map[string][]byte{
		"truncated after marker": append(append([]byte{}, envelopeMarker...), tagContentType),
		"wrong first tag":        buildWrongTag(),
		"content type overruns":  append(append([]byte{}, envelopeMarker...), tagContentType, 0xff, 'a'),
	}

	for name, element := range cases {
		if _, ok := parseEnvelope([][]byte{element}); ok {
			t.Errorf("%s: expected parse failure", name)
		}
	}
}

func buildWrongTag() []byte {
	var buf bytes.Buffer
	buf.Write(envelopeMarker)
	buf.WriteByte(0x07)
	buf.WriteByte(1)
	buf.WriteByte('x')
	return buf.Bytes()
}

func TestEnvelopesIn_InputOrder(t *testing.T) {
	witnesses := [][][]byte{
		{buildEnvelope("text/plain", []byte("first"))},
		{{0xaa}}, // no envelope
		{buildEnvelope("image/png", []byte("second"))},
	}

	envs := envelopesIn(witnesses)
	if len(envs) != 2 {
		t.Fatalf("Expected 2 envelopes, got %d", len(envs))
	}
	if envs[0].InputIndex != 0 || envs[1].InputIndex != 2 {
		t.Errorf("Expected input indexes 0 and 2, got %d and %d", envs[0].InputIndex, envs[1].InputIndex)
	}
	if string(envs[0].Body) != "first" || string(envs[1].Body) != "second" {
		t.Error("Envelopes returned out of input order")
	}
}
