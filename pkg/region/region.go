// Package region provides a bounds-checked view over a contiguous byte buffer
// with big-endian accessors. Every decoder and encoder in this module reads and
// writes through a Region, never through raw slices indexed by hand.
package region

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrOutOfBounds is returned (wrapped in a *BoundsError) when an access would
// run past the end of a region.
var ErrOutOfBounds = errors.New("region: out of bounds")

// BoundsError describes a rejected access.
type BoundsError struct {
	Offset int
	Width  int
	Length int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("region: access of %d bytes at offset %d exceeds length %d", e.Width, e.Offset, e.Length)
}

func (e *BoundsError) Unwrap() error {
	return ErrOutOfBounds
}

// Region is a fixed-length window onto a byte buffer. Regions are cheap values;
// a sub-region shares storage with its parent.
type Region struct {
	buf []byte
}

// New wraps b without copying.
func New(b []byte) Region {
	return Region{buf: b}
}

// Len returns the number of bytes in the region.
func (r Region) Len() int {
	return len(r.buf)
}

// Bytes exposes the underlying storage. Writes through the returned slice are
// visible to every region sharing it.
func (r Region) Bytes() []byte {
	return r.buf
}

// Clone returns a copy of the region's bytes.
func (r Region) Clone() []byte {
	out := make([]byte, len(r.buf))
	copy(out, r.buf)
	return out
}

func (r Region) check(off, width int) error {
	if off < 0 || width < 0 || off > len(r.buf) || width > len(r.buf)-off {
		return &BoundsError{Offset: off, Width: width, Length: len(r.buf)}
	}
	return nil
}

// Slice returns the sub-region [off, off+n).
func (r Region) Slice(off, n int) (Region, error) {
	if err := r.check(off, n); err != nil {
		return Region{}, err
	}
	return Region{buf: r.buf[off : off+n : off+n]}, nil
}

// Tag returns the four bytes at off.
func (r Region) Tag(off int) ([4]byte, error) {
	var t [4]byte
	if err := r.check(off, 4); err != nil {
		return t, err
	}
	copy(t[:], r.buf[off:off+4])
	return t, nil
}

// HasTag reports whether the region starts with tag. Short regions never match.
func (r Region) HasTag(tag [4]byte) bool {
	t, err := r.Tag(0)
	return err == nil && t == tag
}

func (r Region) Uint16(off int) (uint16, error) {
	if err := r.check(off, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(r.buf[off:]), nil
}

func (r Region) Uint32(off int) (uint32, error) {
	if err := r.check(off, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(r.buf[off:]), nil
}

func (r Region) Int32(off int) (int32, error) {
	v, err := r.Uint32(off)
	return int32(v), err
}

func (r Region) Float32(off int) (float32, error) {
	v, err := r.Uint32(off)
	return math.Float32frombits(v), err
}

func (r Region) PutUint16(off int, v uint16) error {
	if err := r.check(off, 2); err != nil {
		return err
	}
	binary.BigEndian.PutUint16(r.buf[off:], v)
	return nil
}

func (r Region) PutUint32(off int, v uint32) error {
	if err := r.check(off, 4); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(r.buf[off:], v)
	return nil
}

func (r Region) PutInt32(off int, v int32) error {
	return r.PutUint32(off, uint32(v))
}

func (r Region) PutFloat32(off int, v float32) error {
	return r.PutUint32(off, math.Float32bits(v))
}

// PutTag writes a four byte tag at off.
func (r Region) PutTag(off int, tag [4]byte) error {
	return r.CopyFrom(off, tag[:])
}

// CopyFrom copies all of src into the region starting at off.
func (r Region) CopyFrom(off int, src []byte) error {
	if err := r.check(off, len(src)); err != nil {
		return err
	}
	copy(r.buf[off:], src)
	return nil
}
