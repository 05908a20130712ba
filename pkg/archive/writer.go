package archive

import (
	"fmt"
	"io"

	"github.com/DataDog/zstd"
	"github.com/pierrec/lz4/v4"
)

// Writer wraps an io.WriteSeeker to provide compression of archive data.
type Writer struct {
	dst     io.WriteSeeker
	zWriter io.WriteCloser
	header  *Header
	method  Method
	level   int
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCompressionLevel sets the zstd compression level. LZ4 payloads always
// use the library's default level.
func WithCompressionLevel(level int) WriterOption {
	return func(w *Writer) {
		w.level = level
	}
}

// WithMethod selects the payload compression.
func WithMethod(m Method) WriterOption {
	return func(w *Writer) {
		w.method = m
	}
}

func newCompressor(dst io.Writer, method Method, level int) io.WriteCloser {
	if method == MethodLZ4 {
		return lz4.NewWriter(dst)
	}
	return zstd.NewWriterLevel(dst, level)
}

// NewWriter creates a new archive writer that writes to dst.
// The uncompressedSize is the expected size of the uncompressed data.
func NewWriter(dst io.WriteSeeker, uncompressedSize uint64, opts ...WriterOption) (*Writer, error) {
	w := &Writer{
		dst:   dst,
		level: DefaultCompressionLevel,
	}

	for _, opt := range opts {
		opt(w)
	}
	// Compressed length is filled in by Close.
	w.header = NewHeader(w.method, uncompressedSize, 0)

	headerBytes, err := w.header.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal header: %w", err)
	}
	if _, err := dst.Write(headerBytes); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	w.zWriter = newCompressor(dst, w.method, w.level)
	return w, nil
}

// Write writes compressed data.
func (w *Writer) Write(p []byte) (n int, err error) {
	return w.zWriter.Write(p)
}

// Close finalizes the archive by updating the header with the compressed size.
func (w *Writer) Close() error {
	if err := w.zWriter.Close(); err != nil {
		return fmt.Errorf("close compressor: %w", err)
	}

	pos, err := w.dst.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("get position: %w", err)
	}

	w.header.CompressedLength = uint64(pos) - uint64(w.header.Size())

	if _, err := w.dst.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek to start: %w", err)
	}

	headerBytes, err := w.header.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}

	if _, err := w.dst.Write(headerBytes); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if _, err := w.dst.Seek(pos, io.SeekStart); err != nil {
		return fmt.Errorf("seek to end: %w", err)
	}

	return nil
}

// Encode compresses data and writes it as an archive to dst.
func Encode(dst io.WriteSeeker, data []byte, opts ...WriterOption) error {
	w, err := NewWriter(dst, uint64(len(data)), opts...)
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}

	return w.Close()
}

// Marshal builds a complete archive in memory.
func Marshal(data []byte, opts ...WriterOption) ([]byte, error) {
	f := &memFile{buf: make([]byte, 0, HeaderSize+len(data)/2)}
	if err := Encode(f, data, opts...); err != nil {
		return nil, err
	}
	return f.buf, nil
}

// memFile is an in-memory io.WriteSeeker for Marshal.
type memFile struct {
	buf []byte
	pos int
}

func (f *memFile) Write(p []byte) (int, error) {
	if end := f.pos + len(p); end > len(f.buf) {
		f.buf = append(f.buf, make([]byte, end-len(f.buf))...)
	}
	n := copy(f.buf[f.pos:], p)
	f.pos += n
	return n, nil
}

func (f *memFile) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(f.pos) + offset
	case io.SeekEnd:
		pos = int64(len(f.buf)) + offset
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}
	if pos < 0 {
		return 0, fmt.Errorf("seek: negative position %d", pos)
	}
	f.pos = int(pos)
	return pos, nil
}
