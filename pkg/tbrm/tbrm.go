// Package tbrm decodes stage attribute tables. A table is a 16-byte header
// followed by a flat array of 4-byte big-endian slots, each holding either a
// float or an integer. Nothing in the file says which; labels.Interpretation
// supplies names and types from outside, or the default heuristic guesses.
//
// TBGM tables share the layout and are decoded by the same Table type.
package tbrm

import (
	"fmt"
	"math"

	"github.com/stagekit/resnode/pkg/region"
	"github.com/stagekit/resnode/pkg/resource"
)

var (
	MagicTBRM = [4]byte{'T', 'B', 'R', 'M'}
	MagicTBGM = [4]byte{'T', 'B', 'G', 'M'}
)

const (
	HeaderSize = 0x10
	SlotSize   = 4
)

var (
	MatchTBRM = resource.TagMatcher(MagicTBRM)
	MatchTBGM = resource.TagMatcher(MagicTBGM)
)

// NewTBRM returns an empty TBRM table for the registry.
func NewTBRM() resource.Node {
	return &Table{kind: resource.TypeTBRM}
}

// NewTBGM returns an empty TBGM table for the registry.
func NewTBGM() resource.Node {
	return &Table{kind: resource.TypeTBGM}
}

// Header is the table header: a tag and three integers of unknown meaning.
type Header struct {
	Tag  [4]byte
	Unk0 int32
	Unk1 int32
	Unk2 int32
}

// DecodeFrom reads the header from the start of r.
func (h *Header) DecodeFrom(r region.Region) error {
	if _, err := r.Slice(0, HeaderSize); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	h.Tag, _ = r.Tag(0x0)
	h.Unk0, _ = r.Int32(0x4)
	h.Unk1, _ = r.Int32(0x8)
	h.Unk2, _ = r.Int32(0xC)
	return nil
}

// EncodeTo writes the header to the start of r.
func (h *Header) EncodeTo(r region.Region) error {
	if _, err := r.Slice(0, HeaderSize); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	r.PutTag(0x0, h.Tag)
	r.PutInt32(0x4, h.Unk0)
	r.PutInt32(0x8, h.Unk1)
	r.PutInt32(0xC, h.Unk2)
	return nil
}

// Table is a decoded attribute table. Slots live in an owned copy of the
// payload; setters edit that copy and Rebuild writes it back.
type Table struct {
	resource.Base

	kind    resource.Type
	header  Header
	entries []byte
}

func (t *Table) Type() resource.Type {
	if t.kind == resource.TypeUnknown {
		return resource.TypeTBRM
	}
	return t.kind
}

func (t *Table) OnInitialize(ctx *resource.Context) (bool, error) {
	src := t.Source()
	if err := t.header.DecodeFrom(src); err != nil {
		return false, err
	}
	payload, err := src.Slice(HeaderSize, src.Len()-HeaderSize)
	if err != nil {
		return false, err
	}
	t.entries = payload.Clone()
	return false, nil
}

func (t *Table) OnPopulate(ctx *resource.Context) error { return nil }

func (t *Table) OnCalculateSize() int {
	return HeaderSize + len(t.entries)
}

func (t *Table) OnRebuild(dst region.Region) error {
	if err := t.header.EncodeTo(dst); err != nil {
		return err
	}
	return dst.CopyFrom(HeaderSize, t.entries)
}

func (t *Table) OnRelease() {
	t.entries = nil
}

// Header returns the decoded header.
func (t *Table) Header() Header {
	return t.header
}

// NumEntries returns the number of whole slots.
func (t *Table) NumEntries() int {
	return len(t.entries) / SlotSize
}

// Unk0 returns the first header integer.
func (t *Table) Unk0() int32 { return t.header.Unk0 }

// Unk1 returns the second header integer.
func (t *Table) Unk1() int32 { return t.header.Unk1 }

// Unk2 returns the third header integer.
func (t *Table) Unk2() int32 { return t.header.Unk2 }

func (t *Table) SetUnk0(v int32) { t.setHeader(&t.header.Unk0, v) }
func (t *Table) SetUnk1(v int32) { t.setHeader(&t.header.Unk1, v) }
func (t *Table) SetUnk2(v int32) { t.setHeader(&t.header.Unk2, v) }

func (t *Table) setHeader(field *int32, v int32) {
	if *field != v {
		*field = v
		t.SignalChange()
	}
}

func (t *Table) slots() region.Region {
	return region.New(t.entries[:t.NumEntries()*SlotSize])
}

func (t *Table) offset(index int) (int, error) {
	if index < 0 || index >= t.NumEntries() {
		return 0, fmt.Errorf("slot %d: %w", index, &region.BoundsError{Offset: index, Width: 1, Length: t.NumEntries()})
	}
	return index * SlotSize, nil
}

// Raw returns the slot's bit pattern.
func (t *Table) Raw(index int) (uint32, error) {
	off, err := t.offset(index)
	if err != nil {
		return 0, err
	}
	return t.slots().Uint32(off)
}

// SetRaw stores a bit pattern. The table is marked dirty only if the stored
// bits change.
func (t *Table) SetRaw(index int, bits uint32) error {
	cur, err := t.Raw(index)
	if err != nil {
		return err
	}
	if cur == bits {
		return nil
	}
	t.slots().PutUint32(index*SlotSize, bits)
	t.SignalChange()
	return nil
}

// GetFloat reads the slot as a float.
func (t *Table) GetFloat(index int) (float32, error) {
	bits, err := t.Raw(index)
	return math.Float32frombits(bits), err
}

// SetFloat writes the slot as a float.
func (t *Table) SetFloat(index int, v float32) error {
	return t.SetRaw(index, math.Float32bits(v))
}

// GetInt reads the slot as a signed integer.
func (t *Table) GetInt(index int) (int32, error) {
	bits, err := t.Raw(index)
	return int32(bits), err
}

// SetInt writes the slot as a signed integer.
func (t *Table) SetInt(index int, v int32) error {
	return t.SetRaw(index, uint32(v))
}
