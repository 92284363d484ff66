package poster

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hupe1980/poster/codec"
)

// Encode serializes a header and body into the two-block frame stored in
// compiled files. A nil codec selects codec.Default.
func Encode(h Header, body string, c codec.Codec) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	if h.Attributes == nil {
		h.Attributes = Attributes{}
	}
	hdr, err := c.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("%w: encode header: %w", ErrInvalidHeader, err)
	}
	buf := make([]byte, 0, codec.FrameSize(len(hdr), len(body)))
	return codec.AppendFrame(buf, hdr, []byte(body)), nil
}

// Decode parses a full frame.
//
// A header block that is JSON null, all defaults, or lacks a title yields
// an error matching both ErrCorruptData and ErrEmptyHeader. Structural
// problems yield ErrCorruptData alone.
func Decode(data []byte, c codec.Codec) (Header, string, error) {
	hdr, body, err := codec.SplitFrame(data)
	if err != nil {
		return Header{}, "", translateError(err)
	}
	h, err := decodeHeader(hdr, c)
	if err != nil {
		return Header{}, "", err
	}
	return h, string(body), nil
}

// DecodeBody returns only the body of a frame. The header block is skipped
// without being parsed.
func DecodeBody(data []byte) (string, error) {
	body, err := codec.BodyFrame(data)
	if err != nil {
		return "", translateError(err)
	}
	return string(body), nil
}

// DecodeBodyFrom reads only the body of a frame of the given size from r.
// Read failures other than truncation are returned unchanged.
func DecodeBodyFrom(r io.ReaderAt, size int64) (string, error) {
	body, err := codec.ReadBodyFrame(r, size)
	if err != nil {
		return "", translateError(err)
	}
	return string(body), nil
}

var jsonNull = []byte("null")

func decodeHeader(data []byte, c codec.Codec) (Header, error) {
	if c == nil {
		c = codec.Default
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, jsonNull) {
		return Header{}, fmt.Errorf("%w: %w", ErrCorruptData, ErrEmptyHeader)
	}

	var h Header
	if err := c.Unmarshal(trimmed, &h); err != nil {
		return Header{}, fmt.Errorf("%w: header: %w", ErrCorruptData, err)
	}
	if h.isZero() {
		return Header{}, fmt.Errorf("%w: %w", ErrCorruptData, ErrEmptyHeader)
	}
	if h.Title == "" {
		return Header{}, fmt.Errorf("%w: %w: missing title", ErrCorruptData, ErrEmptyHeader)
	}
	if h.Attributes == nil {
		h.Attributes = Attributes{}
	}
	return h, nil
}
