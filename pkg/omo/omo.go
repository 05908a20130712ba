package omo

import (
	"errors"
	"fmt"

	"github.com/stagekit/resnode/pkg/region"
	"github.com/stagekit/resnode/pkg/resource"
)

// MaxFrameCount bounds the frame count accepted by populate. Frames may be
// zero bytes wide, so the region length alone does not bound it.
const MaxFrameCount = 1 << 20

// MaxFrameStates bounds bones times frames, the number of poses populate
// derives.
const MaxFrameStates = 1 << 21

// ErrLayoutChanged is returned by Rebuild when bones were added or removed.
var ErrLayoutChanged = errors.New("omo: bone count no longer matches the header")

// Match reports whether src starts with the OMO tag.
var Match = resource.TagMatcher(Magic)

// New returns an empty OMO node for the registry.
func New() resource.Node {
	return &Node{}
}

// Node is a decoded OMO animation. Its children are Bone nodes, one per bone
// table entry, or Raw nodes for entries that failed to decode.
type Node struct {
	resource.Base

	header  Header
	fixed   []byte // owned copy of the fixed-data region
	frames  []byte // owned copy of the frame-data region
	decoded bool   // populate got past the region checks
}

func (n *Node) Type() resource.Type { return resource.TypeOMO }

func (n *Node) OnInitialize(ctx *resource.Context) (bool, error) {
	if err := n.header.DecodeFrom(n.Source()); err != nil {
		return false, err
	}
	return n.header.BoneCount > 0, nil
}

func (n *Node) OnPopulate(ctx *resource.Context) error {
	h := &n.header
	src := n.Source()

	if h.FrameCount > MaxFrameCount {
		return fmt.Errorf("frame count %d exceeds %d", h.FrameCount, MaxFrameCount)
	}
	if states := uint64(h.BoneCount) * uint64(h.FrameCount); states > MaxFrameStates {
		return fmt.Errorf("%d bones over %d frames is %d frame states, exceeds %d",
			h.BoneCount, h.FrameCount, states, MaxFrameStates)
	}

	fixedLen := h.FixedDataLength()
	if fixedLen < 0 {
		n.Warnf("frame data at 0x%X starts before fixed data at 0x%X", h.FrameDataOffset, h.FixedDataOffset)
		fixedLen = 0
	}
	fixed, err := src.Slice(int(h.FixedDataOffset), fixedLen)
	if err != nil {
		return fmt.Errorf("fixed data: %w", err)
	}
	frames, err := src.Slice(int(h.FrameDataOffset), h.FrameDataLength())
	if err != nil {
		return fmt.Errorf("frame data: %w", err)
	}
	table, err := src.Slice(int(h.BoneTableOffset), int(h.BoneCount)*BoneEntrySize)
	if err != nil {
		return fmt.Errorf("bone table: %w", err)
	}
	n.fixed = fixed.Clone()
	n.frames = frames.Clone()
	n.decoded = true

	count := int(h.BoneCount)
	entries := make([]region.Region, count)
	fixedOffsets := make([]uint32, count)
	frameOffsets := make([]uint32, count)
	for i := range entries {
		entries[i], _ = table.Slice(i*BoneEntrySize, BoneEntrySize)
		fixedOffsets[i], _ = entries[i].Uint32(0x8)
		frameOffsets[i], _ = entries[i].Uint32(0xC)
	}

	fixedLens := SegmentLengths(fixedOffsets, fixedLen)
	frameLens := SegmentLengths(frameOffsets, int(h.FrameSize))

	for i, entry := range entries {
		bone := &Bone{fixedLen: fixedLens[i], frameLen: frameLens[i]}
		if err := resource.Initialize(bone, n, entry, ctx); err != nil {
			hash, _ := entry.Uint32(0)
			raw := resource.NewRaw(fmt.Sprintf("%X", hash), n, entry, ctx)
			for _, d := range bone.Diagnostics() {
				raw.Warnf("%s", d.Message)
			}
			raw.Warnf("bone %d kept as raw data: %v", i, err)
		}
	}
	return nil
}

func (n *Node) OnCalculateSize() int {
	return n.Source().Len()
}

// OnRebuild starts from the original bytes so padding and unknown regions
// survive, then writes the header, the bone table and every bone's fixed data.
func (n *Node) OnRebuild(dst region.Region) error {
	if err := dst.CopyFrom(0, n.Source().Bytes()); err != nil {
		return err
	}
	if err := n.header.EncodeTo(dst); err != nil {
		return err
	}
	if !n.HasChildren() {
		return nil
	}

	children := n.Children()
	if !n.decoded {
		return nil
	}
	if len(children) != int(n.header.BoneCount) {
		return fmt.Errorf("%d bones, header says %d: %w", len(children), n.header.BoneCount, ErrLayoutChanged)
	}

	fixed, err := dst.Slice(int(n.header.FixedDataOffset), len(n.fixed))
	if err != nil {
		return fmt.Errorf("fixed data: %w", err)
	}
	fixed.CopyFrom(0, n.fixed)
	if err := dst.CopyFrom(int(n.header.FrameDataOffset), n.frames); err != nil {
		return fmt.Errorf("frame data: %w", err)
	}

	for i, c := range children {
		entry, err := dst.Slice(int(n.header.BoneTableOffset)+i*BoneEntrySize, BoneEntrySize)
		if err != nil {
			return fmt.Errorf("bone table: %w", err)
		}
		if err := c.Meta().Rebuild(entry); err != nil {
			return err
		}
		if bone, ok := c.(*Bone); ok {
			if err := bone.encodeFixed(fixed); err != nil {
				return err
			}
		}
	}
	return nil
}

func (n *Node) OnRelease() {
	n.fixed = nil
	n.frames = nil
	n.decoded = false
}

// Header returns the decoded header.
func (n *Node) Header() Header {
	return n.header
}

// FrameCount returns the number of frames.
func (n *Node) FrameCount() int {
	return int(n.header.FrameCount)
}

// Bones returns the decoded bones, skipping entries kept as raw data.
func (n *Node) Bones() []*Bone {
	var bones []*Bone
	for _, c := range n.Children() {
		if b, ok := c.(*Bone); ok {
			bones = append(bones, b)
		}
	}
	return bones
}

// Bone returns the first bone with the given name.
func (n *Node) Bone(name string) (*Bone, bool) {
	for _, b := range n.Bones() {
		if b.Name() == name {
			return b, true
		}
	}
	return nil, false
}

// FrameState returns bone i's pose at frame f. i indexes Children, so it
// matches the position in the bone table.
func (n *Node) FrameState(i, f int) (FrameState, error) {
	children := n.Children()
	if i < 0 || i >= len(children) {
		return FrameState{}, fmt.Errorf("bone %d: %w", i, &region.BoundsError{Offset: i, Width: 1, Length: len(children)})
	}
	bone, ok := children[i].(*Bone)
	if !ok {
		return FrameState{}, fmt.Errorf("bone %d was not decoded", i)
	}
	if f < 0 || f >= len(bone.states) {
		return FrameState{}, fmt.Errorf("frame %d: %w", f, &region.BoundsError{Offset: f, Width: 1, Length: len(bone.states)})
	}
	return bone.states[f], nil
}
