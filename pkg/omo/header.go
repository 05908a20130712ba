// Package omo decodes and re-encodes OMO bone animations.
//
// An OMO region holds a header, a table of 16-byte bone entries, a fixed-data
// region with per-bone constants and quantization ranges, and a frame-data
// region with FrameCount frames of FrameSize bytes each. Every bone owns one
// segment of the fixed region and one segment of each frame; segment bounds are
// implied by the next bone's offsets.
package omo

import (
	"fmt"

	"github.com/stagekit/resnode/pkg/region"
)

// Magic identifies an OMO region.
var Magic = [4]byte{'O', 'M', 'O', ' '}

const (
	// HeaderSize is the fixed binary size of the header.
	HeaderSize = 28 // tag + 6 * uint32
	// BoneEntrySize is the size of one bone table entry.
	BoneEntrySize = 16
)

// Header is the decoded OMO header. Values are kept exactly as stored, even
// when they look wrong; the decoder reports problems instead of rejecting them.
type Header struct {
	Tag             [4]byte
	FrameCount      uint32
	FrameSize       uint32 // bytes per frame across all bones
	BoneCount       uint32
	BoneTableOffset uint32
	FixedDataOffset uint32
	FrameDataOffset uint32
}

// DecodeFrom reads the header from the start of r.
func (h *Header) DecodeFrom(r region.Region) error {
	if r.Len() < HeaderSize {
		return fmt.Errorf("omo header: %w", &region.BoundsError{Offset: 0, Width: HeaderSize, Length: r.Len()})
	}
	h.Tag, _ = r.Tag(0x00)
	h.FrameCount, _ = r.Uint32(0x04)
	h.FrameSize, _ = r.Uint32(0x08)
	h.BoneCount, _ = r.Uint32(0x0C)
	h.BoneTableOffset, _ = r.Uint32(0x10)
	h.FixedDataOffset, _ = r.Uint32(0x14)
	h.FrameDataOffset, _ = r.Uint32(0x18)
	return nil
}

// EncodeTo writes the header to the start of r.
func (h *Header) EncodeTo(r region.Region) error {
	if r.Len() < HeaderSize {
		return fmt.Errorf("omo header: %w", &region.BoundsError{Offset: 0, Width: HeaderSize, Length: r.Len()})
	}
	r.PutTag(0x00, h.Tag)
	r.PutUint32(0x04, h.FrameCount)
	r.PutUint32(0x08, h.FrameSize)
	r.PutUint32(0x0C, h.BoneCount)
	r.PutUint32(0x10, h.BoneTableOffset)
	r.PutUint32(0x14, h.FixedDataOffset)
	r.PutUint32(0x18, h.FrameDataOffset)
	return nil
}

// FixedDataLength is the size of the fixed-data region, which runs up to the
// start of the frame data.
func (h *Header) FixedDataLength() int {
	return int(h.FrameDataOffset) - int(h.FixedDataOffset)
}

// FrameDataLength is the size of all frames together.
func (h *Header) FrameDataLength() int {
	return int(h.FrameCount) * int(h.FrameSize)
}

// BoneEntry is the wire form of one bone table record.
type BoneEntry struct {
	Hash        uint32
	Flags       Flags
	FixedOffset uint32 // start of this bone's segment in the fixed-data region
	FrameOffset uint32 // start of this bone's segment within each frame
}

// DecodeFrom reads an entry from the start of r.
func (e *BoneEntry) DecodeFrom(r region.Region) error {
	c := region.NewCursor(r, 0)
	e.Hash = c.ReadUint32()
	e.Flags = Flags(c.ReadUint32())
	e.FixedOffset = c.ReadUint32()
	e.FrameOffset = c.ReadUint32()
	if err := c.Err(); err != nil {
		return fmt.Errorf("omo bone entry: %w", err)
	}
	return nil
}

// EncodeTo writes the entry to the start of r.
func (e *BoneEntry) EncodeTo(r region.Region) error {
	if _, err := r.Slice(0, BoneEntrySize); err != nil {
		return fmt.Errorf("omo bone entry: %w", err)
	}
	r.PutUint32(0x0, e.Hash)
	r.PutUint32(0x4, uint32(e.Flags))
	r.PutUint32(0x8, e.FixedOffset)
	r.PutUint32(0xC, e.FrameOffset)
	return nil
}

// SegmentLengths turns ascending segment offsets into lengths. Each segment
// ends where the next begins; the last ends at total.
func SegmentLengths(offsets []uint32, total int) []int {
	lens := make([]int, len(offsets))
	for i, off := range offsets {
		end := total
		if i+1 < len(offsets) {
			end = int(offsets[i+1])
		}
		lens[i] = end - int(off)
	}
	return lens
}
