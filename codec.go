package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrDecode marks an agent frame that could not be decoded.
var ErrDecode = errors.New("decode frame")

// EncodeFrame renders v as one agent line: base64(JSON) followed by '\n'.
func EncodeFrame(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(raw))+1)
	base64.StdEncoding.Encode(out, raw)
	out[len(out)-1] = '\n'
	return out, nil
}

// DecodeControl decodes one agent line. On error the returned input is empty,
// which callers apply as a no-op.
func DecodeControl(line []byte) (ControlInput, error) {
	line = bytes.TrimSpace(line)
	// Python agents that print a bytes object emit b'...'
	if len(line) >= 3 && line[0] == 'b' && (line[1] == '\'' || line[1] == '"') && line[len(line)-1] == line[1] {
		line = line[2 : len(line)-1]
	}
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(line)))
	n, err := base64.StdEncoding.Decode(raw, line)
	if err != nil {
		return ControlInput{}, fmt.Errorf("%w: base64: %v", ErrDecode, err)
	}
	var in ControlInput
	if err := json.Unmarshal(raw[:n], &in); err != nil {
		return ControlInput{}, fmt.Errorf("%w: json: %v", ErrDecode, err)
	}
	return in, nil
}

// EncodeSnapshot serializes the public snapshot for one observer encoding.
func EncodeSnapshot(states []PlayerState, enc string) ([]byte, error) {
	switch enc {
	case EncMsgpack:
		return msgpack.Marshal(states)
	default:
		return json.Marshal(states)
	}
}
