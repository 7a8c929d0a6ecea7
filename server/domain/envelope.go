package domain

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrUnknownMessage   = errors.New("unknown message type")
)

// Envelope is the tag every wire message carries next to its own fields.
type Envelope struct {
	Type string `json:"type"`
}

// PeekType returns the type tag of a JSON text frame.
func PeekType(data []byte) (string, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if env.Type == "" {
		return "", fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	return env.Type, nil
}

// Decode unmarshals the fields of a frame into T. The type tag is ignored.
func Decode[T any](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return v, nil
}

// Encode writes payload as a flat JSON object with "type" as its first key.
// payload must marshal to a JSON object; nil yields {"type":...} alone.
func Encode(msgType string, payload any) ([]byte, error) {
	tag, err := json.Marshal(msgType)
	if err != nil {
		return nil, err
	}
	var body []byte
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", msgType, err)
		}
		body = bytes.TrimSpace(body)
		if len(body) < 2 || body[0] != '{' {
			return nil, fmt.Errorf("encode %s: payload is not an object", msgType)
		}
	}

	buf := make([]byte, 0, len(tag)+len(body)+10)
	buf = append(buf, `{"type":`...)
	buf = append(buf, tag...)
	if len(body) > 2 {
		buf = append(buf, ',')
		buf = append(buf, body[1:]...)
		return buf, nil
	}
	return append(buf, '}'), nil
}
