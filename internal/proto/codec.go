package proto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// Frame flags prefixed to every transport payload.
const (
	frameRaw byte = 0
	frameLZ4 byte = 1
)

// CompressThreshold is the encoded size above which frames are lz4
// compressed. Small frames ship raw; compressing them costs more than it
// saves.
const CompressThreshold = 1024

// Codec marshals wire messages into framed transport payloads.
type Codec struct {
	threshold int
}

func NewCodec() *Codec {
	return &Codec{threshold: CompressThreshold}
}

// Encode marshals v to JSON and frames it, compressing large payloads.
func (c *Codec) Encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	if len(raw) < c.threshold {
		framed := make([]byte, 1+len(raw))
		framed[0] = frameRaw
		copy(framed[1:], raw)
		return framed, nil
	}
	var buf bytes.Buffer
	buf.WriteByte(frameLZ4)
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("compress frame: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress frame: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode unframes a transport payload back into raw JSON bytes.
func (c *Codec) Decode(framed []byte) ([]byte, error) {
	if len(framed) == 0 {
		return nil, fmt.Errorf("decode frame: empty payload")
	}
	switch framed[0] {
	case frameRaw:
		return framed[1:], nil
	case frameLZ4:
		zr := lz4.NewReader(bytes.NewReader(framed[1:]))
		raw, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("decompress frame: %w", err)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("decode frame: unknown flag %d", framed[0])
	}
}

// DecodeInto unframes and unmarshals into v.
func (c *Codec) DecodeInto(framed []byte, v any) error {
	raw, err := c.Decode(framed)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	return nil
}

// PeekType unframes just enough to read the message envelope.
func (c *Codec) PeekType(framed []byte) (Envelope, []byte, error) {
	raw, err := c.Decode(framed)
	if err != nil {
		return Envelope{}, nil, err
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, nil, fmt.Errorf("decode envelope: %w", err)
	}
	return env, raw, nil
}
