package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// LengthSize is the width of a block length prefix in bytes.
const LengthSize = 8

var (
	// ErrTruncated is returned when a frame declares more bytes than it holds,
	// declares a negative length, or ends inside a length prefix.
	ErrTruncated = errors.New("frame truncated")

	// ErrTrailingData is returned when bytes follow the body block.
	ErrTrailingData = errors.New("trailing data after body block")
)

// Frame layout:
//
//	[int64 LE: len(header)][header bytes]
//	[int64 LE: len(body)][body bytes]
//
// Both blocks are independently length-prefixed so the body can be located
// without reading the header.

// FrameSize returns the encoded size of a frame with the given block sizes.
func FrameSize(headerLen, bodyLen int) int {
	return 2*LengthSize + headerLen + bodyLen
}

// AppendFrame appends the framed header and body blocks to dst.
func AppendFrame(dst, header, body []byte) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, uint64(int64(len(header))))
	dst = append(dst, header...)
	dst = binary.LittleEndian.AppendUint64(dst, uint64(int64(len(body))))
	return append(dst, body...)
}

// SplitFrame returns the header and body blocks of data.
// The returned slices alias data.
func SplitFrame(data []byte) (header, body []byte, err error) {
	header, rest, err := nextBlock(data, "header")
	if err != nil {
		return nil, nil, err
	}
	body, rest, err = nextBlock(rest, "body")
	if err != nil {
		return nil, nil, err
	}
	if len(rest) != 0 {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrTrailingData, len(rest))
	}
	return header, body, nil
}

// BodyFrame returns the body block of data. The header block is skipped by
// its length prefix and never inspected.
func BodyFrame(data []byte) ([]byte, error) {
	hlen, err := blockLen(data, "header")
	if err != nil {
		return nil, err
	}
	body, rest, err := nextBlock(data[LengthSize+hlen:], "body")
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingData, len(rest))
	}
	return body, nil
}

// ReadBodyFrame reads only the body block of a frame of the given size from r.
// It issues three reads: the header length, the body length and the body.
func ReadBodyFrame(r io.ReaderAt, size int64) ([]byte, error) {
	var prefix [LengthSize]byte

	if err := readFull(r, prefix[:], 0, size); err != nil {
		return nil, fmt.Errorf("header length: %w", err)
	}
	hlen := int64(binary.LittleEndian.Uint64(prefix[:]))
	if hlen < 0 || hlen > size-LengthSize {
		return nil, fmt.Errorf("%w: header block declares %d bytes, have %d", ErrTruncated, hlen, size-LengthSize)
	}

	off := LengthSize + hlen
	if err := readFull(r, prefix[:], off, size); err != nil {
		return nil, fmt.Errorf("body length: %w", err)
	}
	off += LengthSize

	blen := int64(binary.LittleEndian.Uint64(prefix[:]))
	if blen < 0 || blen > size-off {
		return nil, fmt.Errorf("%w: body block declares %d bytes, have %d", ErrTruncated, blen, size-off)
	}
	if blen != size-off {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingData, size-off-blen)
	}

	body := make([]byte, blen)
	if err := readFull(r, body, off, size); err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}
	return body, nil
}

func blockLen(data []byte, name string) (int, error) {
	if len(data) < LengthSize {
		return 0, fmt.Errorf("%w: %s length needs %d bytes, have %d", ErrTruncated, name, LengthSize, len(data))
	}
	n := int64(binary.LittleEndian.Uint64(data))
	if n < 0 || n > int64(len(data)-LengthSize) {
		return 0, fmt.Errorf("%w: %s block declares %d bytes, have %d", ErrTruncated, name, n, len(data)-LengthSize)
	}
	return int(n), nil
}

func nextBlock(data []byte, name string) (block, rest []byte, err error) {
	n, err := blockLen(data, name)
	if err != nil {
		return nil, nil, err
	}
	data = data[LengthSize:]
	return data[:n:n], data[n:], nil
}

// readFull fills p from r at off. A short read inside size is reported as
// ErrTruncated, matching the in-memory decoders.
func readFull(r io.ReaderAt, p []byte, off, size int64) error {
	if off+int64(len(p)) > size {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, len(p), off, size)
	}
	if len(p) == 0 {
		return nil
	}
	n, err := r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: read %d of %d bytes at offset %d", ErrTruncated, n, len(p), off)
	}
	return err
}
