package archive

import (
	"fmt"
	"io"

	"github.com/DataDog/zstd"
	"github.com/pierrec/lz4/v4"
)

const (
	// DefaultCompressionLevel is the default zstd level for encoding.
	DefaultCompressionLevel = zstd.BestSpeed
)

// Reader wraps an io.Reader to provide decompression of archive data.
type Reader struct {
	header    *Header
	zReader   io.ReadCloser
	headerBuf [HeaderSize]byte
}

// NewReader reads and validates the header, then returns a reader for the
// decompressed content.
func NewReader(r io.Reader) (*Reader, error) {
	reader := &Reader{
		header: &Header{},
	}

	if _, err := io.ReadFull(r, reader.headerBuf[:]); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	if err := reader.header.UnmarshalBinary(reader.headerBuf[:]); err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	payload := io.LimitReader(r, int64(reader.header.CompressedLength))
	switch reader.header.Method() {
	case MethodLZ4:
		reader.zReader = io.NopCloser(lz4.NewReader(payload))
	default:
		reader.zReader = zstd.NewReader(payload)
	}
	return reader, nil
}

// Header returns the archive header.
func (r *Reader) Header() *Header {
	return r.header
}

// Read reads decompressed data into p.
func (r *Reader) Read(p []byte) (n int, err error) {
	return r.zReader.Read(p)
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.zReader.Close()
}

// Length returns the uncompressed data length.
func (r *Reader) Length() int {
	return int(r.header.Length)
}

// CompressedLength returns the compressed data length.
func (r *Reader) CompressedLength() int {
	return int(r.header.CompressedLength)
}

// MaxPayload caps the declared uncompressed size ReadAll accepts.
const MaxPayload = 1 << 30

// ReadAll reads the entire decompressed content from an archive.
func ReadAll(r io.Reader) ([]byte, error) {
	reader, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	if reader.header.Length > MaxPayload {
		return nil, fmt.Errorf("declared payload of %d bytes exceeds %d", reader.header.Length, MaxPayload)
	}

	data := make([]byte, reader.Length())
	n, err := io.ReadFull(reader, data)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	if n != reader.Length() {
		return nil, fmt.Errorf("incomplete read: expected %d, got %d", reader.Length(), n)
	}

	return data, nil
}
