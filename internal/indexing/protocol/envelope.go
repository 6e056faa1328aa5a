package protocol

import "bytes"

// Envelope is a parsed inscription envelope found in a transaction witness.
type Envelope struct {
	InputIndex    int
	ContentType   string
	Body          []byte
	ContentLength int
}

// envelopeMarker is OP_FALSE OP_IF OP_PUSHBYTES_3 "ord", the prefix of the
// inscription envelope inside a tapscript witness element.
var envelopeMarker = []byte{0x00, 0x63, 0x03, 'o', 'r', 'd'}

const (
	tagContentType  = 0x01
	bodySeparator   = 0x00
	opEndIf         = 0x68
	maxContentBytes = 400_000
)

// parseEnvelope scans one witness stack for an inscription envelope. The
// parser is tolerant: a malformed envelope is simply not an inscription.
func parseEnvelope(witness [][]byte) (*Envelope, bool) {
	for _, element := range witness {
		idx := bytes.Index(element, envelopeMarker)
		if idx < 0 {
			continue
		}
		env, ok := parsePayload(element[idx+len(envelopeMarker):])
		if ok {
			return env, true
		}
	}
	return nil, false
}

// parsePayload reads the tagged fields after the marker: a content-type tag
// (0x01, one-byte push), the body separator, then the body until OP_ENDIF.
func parsePayload(payload []byte) (*Envelope, bool) {
	if len(payload) < 3 || payload[0] != tagContentType {
		return nil, false
	}
	ctLen := int(payload[1])
	if len(payload) < 2+ctLen+1 {
		return nil, false
	}
	contentType := string(payload[2 : 2+ctLen])

	rest := payload[2+ctLen:]
	if rest[0] != bodySeparator {
		return nil, false
	}
	body := rest[1:]
	if n := bytes.IndexByte(body, opEndIf); n >= 0 {
		body = body[:n]
	}
	if len(body) > maxContentBytes {
		return nil, false
	}

	return &Envelope{
		ContentType:   contentType,
		Body:          body,
		ContentLength: len(body),
	}, true
}

// envelopesIn returns every envelope revealed by a witness-bearing input of
// the transaction, in input order. Reveal numbering depends on this order
// being deterministic.
func envelopesIn(witnesses [][][]byte) []*Envelope {
	var found []*Envelope
	for i, witness := range witnesses {
		if env, ok := parseEnvelope(witness); ok {
			env.InputIndex = i
			found = append(found, env)
		}
	}
	return found
}
