package omo

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/stagekit/resnode/pkg/region"
	"github.com/stagekit/resnode/pkg/resource"
)

// ErrEncoding is returned when a setter does not fit the channel's encoding.
var ErrEncoding = errors.New("omo: channel encoding does not support this edit")

// Bone is one bone table entry together with its decoded channels and per
// frame poses. Bones are children of an OMO Node.
type Bone struct {
	resource.Base

	entry    BoneEntry
	fixedLen int // computed fixed segment length
	frameLen int // computed per-frame segment length

	channels     [3]Channel
	fixedDecoded bool
	states       []FrameState
}

func (b *Bone) Type() resource.Type { return resource.TypeOMOBone }

func (b *Bone) OnInitialize(ctx *resource.Context) (bool, error) {
	if err := b.entry.DecodeFrom(b.Source()); err != nil {
		return false, err
	}
	b.SetName(b.displayName(ctx))

	anim := b.animation()
	if anim == nil {
		return false, nil
	}
	if err := b.decodeFixed(region.New(anim.fixed)); err != nil {
		return false, err
	}
	if err := b.decodeFrames(anim); err != nil {
		return false, err
	}
	return false, nil
}

func (b *Bone) OnPopulate(ctx *resource.Context) error { return nil }

func (b *Bone) OnCalculateSize() int { return BoneEntrySize }

func (b *Bone) OnRebuild(dst region.Region) error {
	return b.entry.EncodeTo(dst)
}

func (b *Bone) OnRelease() {
	b.states = nil
}

func (b *Bone) animation() *Node {
	n, _ := b.Parent().(*Node)
	return n
}

// displayName resolves the hash against the skeleton, falling back to hex.
func (b *Bone) displayName(ctx *resource.Context) string {
	if ctx != nil && ctx.Skeleton != nil {
		if name, ok := ctx.Skeleton.BoneName(b.entry.Hash); ok {
			return name
		}
	}
	return fmt.Sprintf("%X", b.entry.Hash)
}

func readVec3(c *region.Cursor) mgl32.Vec3 {
	return mgl32.Vec3{c.ReadFloat32(), c.ReadFloat32(), c.ReadFloat32()}
}

// decodeFixed reads the bone's constants and ranges, scale then rotation then
// translation.
func (b *Bone) decodeFixed(fixed region.Region) error {
	c := region.NewCursor(fixed, int(b.entry.FixedOffset))
	start := c.Offset()

	for _, k := range Kinds {
		ch := Channel{Kind: k, Encoding: b.entry.Flags.Encoding(k)}
		switch ch.Encoding {
		case EncodingConstant:
			ch.Min = readVec3(c)
		case EncodingRange:
			ch.Min = readVec3(c)
			ch.Max = readVec3(c)
		case EncodingQuaternion:
			v := readVec3(c)
			ch.Quat = mgl32.Quat{W: c.ReadFloat32(), V: v}
		case EncodingUnknown:
			b.Warnf("unknown %s mode 0x%02X, channel left neutral", k, b.entry.Flags.Mode(k))
		}
		b.channels[k] = ch
	}
	if err := c.Err(); err != nil {
		return fmt.Errorf("fixed data: %w", err)
	}

	if consumed := c.Offset() - start; consumed != b.fixedLen {
		b.Warnf("fixed data length mismatch: consumed %d bytes, segment is %d", consumed, b.fixedLen)
	}
	b.fixedDecoded = true
	return nil
}

// decodeFrames derives the pose for every frame from the channels and the
// parent's frame data.
func (b *Bone) decodeFrames(anim *Node) error {
	frames := region.New(anim.frames)
	frameSize := int(anim.header.FrameSize)
	states := make([]FrameState, anim.header.FrameCount)

	mismatched, consumed := 0, 0
	for f := range states {
		c := region.NewCursor(frames, f*frameSize+int(b.entry.FrameOffset))
		start := c.Offset()

		st := NeutralFrameState()
		for _, k := range Kinds {
			ch := &b.channels[k]
			if ch.Encoding == EncodingNone {
				continue
			}

			var v mgl32.Vec3
			switch ch.Encoding {
			case EncodingConstant:
				v = ch.Min
			case EncodingRange:
				v = ch.Sample(c.ReadUint16(), c.ReadUint16(), c.ReadUint16())
			case EncodingFrame:
				v = readVec3(c)
			case EncodingQuaternion:
				v = QuatToEuler(ch.Quat)
			case EncodingUnknown:
				if k == KindScale {
					v = st.Scale
				}
			}

			switch k {
			case KindScale:
				st.Scale = v
			case KindRotation:
				st.Rotate = v.Mul(rad2deg)
			case KindTranslation:
				st.Translate = v
			}
		}
		if err := c.Err(); err != nil {
			return fmt.Errorf("frame %d: %w", f, err)
		}

		if n := c.Offset() - start; n != b.frameLen {
			mismatched++
			consumed = n
		}
		states[f] = st
	}

	if mismatched > 0 {
		b.Warnf("frame data length mismatch in %d of %d frames: consumed %d bytes, segment is %d",
			mismatched, len(states), consumed, b.frameLen)
	}
	b.states = states
	return nil
}

// encodeFixed writes the channel constants back at the bone's fixed offset.
func (b *Bone) encodeFixed(fixed region.Region) error {
	if !b.fixedDecoded {
		return nil
	}
	off := int(b.entry.FixedOffset)
	putVec3 := func(v mgl32.Vec3) error {
		for i := 0; i < 3; i++ {
			if err := fixed.PutFloat32(off, v[i]); err != nil {
				return err
			}
			off += 4
		}
		return nil
	}

	for _, ch := range b.channels {
		var err error
		switch ch.Encoding {
		case EncodingConstant:
			err = putVec3(ch.Min)
		case EncodingRange:
			if err = putVec3(ch.Min); err == nil {
				err = putVec3(ch.Max)
			}
		case EncodingQuaternion:
			if err = putVec3(ch.Quat.V); err == nil {
				err = fixed.PutFloat32(off, ch.Quat.W)
				off += 4
			}
		}
		if err != nil {
			return fmt.Errorf("bone %s: %w", b.Name(), err)
		}
	}
	return nil
}

// Hash returns the bone hash.
func (b *Bone) Hash() uint32 {
	return b.entry.Hash
}

// Flags returns the raw flag word.
func (b *Bone) Flags() Flags {
	return b.entry.Flags
}

// Entry returns the bone table record.
func (b *Bone) Entry() BoneEntry {
	return b.entry
}

// FixedSegmentLength is the computed size of the bone's fixed-data segment.
func (b *Bone) FixedSegmentLength() int {
	return b.fixedLen
}

// FrameSegmentLength is the computed size of the bone's segment in each frame.
func (b *Bone) FrameSegmentLength() int {
	return b.frameLen
}

// Channel returns the decoded channel of kind k.
func (b *Bone) Channel(k Kind) Channel {
	return b.channels[k]
}

// FrameStates returns the pose for every frame.
func (b *Bone) FrameStates() []FrameState {
	return b.states
}

// SetBoneHash changes the bone hash and re-resolves the display name.
func (b *Bone) SetBoneHash(hash uint32) {
	if b.entry.Hash == hash {
		return
	}
	b.entry.Hash = hash
	b.SetName(b.displayName(b.Context()))
	b.SignalChange()
}

// SetChannelValue replaces the value of a constant channel. Rotation values
// are radians.
func (b *Bone) SetChannelValue(k Kind, v mgl32.Vec3) error {
	ch := &b.channels[k]
	if ch.Encoding != EncodingConstant {
		return fmt.Errorf("set %s value on %s channel: %w", k, ch.Encoding, ErrEncoding)
	}
	if ch.Min == v {
		return nil
	}
	ch.Min = v
	return b.changed()
}

// SetChannelRange replaces the quantization range of a range channel.
func (b *Bone) SetChannelRange(k Kind, min, max mgl32.Vec3) error {
	ch := &b.channels[k]
	if ch.Encoding != EncodingRange {
		return fmt.Errorf("set %s range on %s channel: %w", k, ch.Encoding, ErrEncoding)
	}
	if ch.Min == min && ch.Max == max {
		return nil
	}
	ch.Min, ch.Max = min, max
	return b.changed()
}

// SetQuaternion replaces the rotation of a quaternion channel.
func (b *Bone) SetQuaternion(q mgl32.Quat) error {
	ch := &b.channels[KindRotation]
	if ch.Encoding != EncodingQuaternion {
		return fmt.Errorf("set quaternion on %s channel: %w", ch.Encoding, ErrEncoding)
	}
	if ch.Quat == q {
		return nil
	}
	ch.Quat = q
	return b.changed()
}

func (b *Bone) changed() error {
	b.SignalChange()
	if anim := b.animation(); anim != nil {
		return b.decodeFrames(anim)
	}
	return nil
}
