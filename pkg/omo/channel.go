package omo

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Flags is a bone entry's flag word. One byte each, high to low: channel
// presence, translation mode, rotation mode, scale mode. Only the high nibble
// of a mode byte selects the encoding.
type Flags uint32

const (
	FlagTranslation Flags = 0x01000000
	FlagRotation    Flags = 0x02000000
	FlagScale       Flags = 0x04000000
	FlagAlwaysOn    Flags = 0x08000000
)

func (f Flags) HasTranslation() bool { return f&FlagTranslation != 0 }
func (f Flags) HasRotation() bool    { return f&FlagRotation != 0 }
func (f Flags) HasScale() bool       { return f&FlagScale != 0 }
func (f Flags) AlwaysOn() bool       { return f&FlagAlwaysOn != 0 }

// Mode returns the raw mode byte for a channel.
func (f Flags) Mode(k Kind) byte {
	switch k {
	case KindTranslation:
		return byte(f >> 16)
	case KindRotation:
		return byte(f >> 8)
	default:
		return byte(f)
	}
}

// Has reports whether the channel is present.
func (f Flags) Has(k Kind) bool {
	switch k {
	case KindTranslation:
		return f.HasTranslation()
	case KindRotation:
		return f.HasRotation()
	default:
		return f.HasScale()
	}
}

// Encoding resolves the channel's encoding from the flag word.
func (f Flags) Encoding(k Kind) Encoding {
	if !f.Has(k) {
		return EncodingNone
	}
	mode := f.Mode(k) >> 4
	switch k {
	case KindRotation:
		switch mode {
		case 0x7:
			return EncodingConstant
		case 0x6:
			return EncodingQuaternion
		case 0x5:
			return EncodingRange
		case 0xA:
			return EncodingFrame
		}
	case KindScale:
		switch mode {
		case 0x2, 0x3:
			return EncodingConstant
		case 0x8:
			return EncodingRange
		case 0xA:
			return EncodingFrame
		}
	case KindTranslation:
		switch mode {
		case 0x2:
			return EncodingConstant
		case 0x8:
			return EncodingRange
		case 0xA:
			return EncodingFrame
		}
	}
	return EncodingUnknown
}

// Kind names an animation channel. Channels are always decoded in Kind order.
type Kind int

const (
	KindScale Kind = iota
	KindRotation
	KindTranslation
)

// Kinds lists channels in decode order.
var Kinds = [3]Kind{KindScale, KindRotation, KindTranslation}

func (k Kind) String() string {
	switch k {
	case KindScale:
		return "scale"
	case KindRotation:
		return "rotation"
	case KindTranslation:
		return "translation"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Encoding is how a channel is stored.
type Encoding int

const (
	EncodingNone       Encoding = iota // channel absent
	EncodingConstant                   // one vector in fixed data
	EncodingRange                      // min and max vectors in fixed data, 3 uint16 samples per frame
	EncodingQuaternion                 // one x,y,z,w quaternion in fixed data (rotation only)
	EncodingFrame                      // 3 raw floats per frame
	EncodingUnknown                    // present, but the mode is not understood
)

func (e Encoding) String() string {
	switch e {
	case EncodingNone:
		return "none"
	case EncodingConstant:
		return "constant"
	case EncodingRange:
		return "range"
	case EncodingQuaternion:
		return "quaternion"
	case EncodingFrame:
		return "frame"
	default:
		return "unknown"
	}
}

// FixedSize is the number of fixed-data bytes the encoding consumes.
func (e Encoding) FixedSize() int {
	switch e {
	case EncodingConstant:
		return 12
	case EncodingRange:
		return 24
	case EncodingQuaternion:
		return 16
	default:
		return 0
	}
}

// FrameSize is the number of bytes the encoding consumes in every frame.
func (e Encoding) FrameSize() int {
	switch e {
	case EncodingRange:
		return 6
	case EncodingFrame:
		return 12
	default:
		return 0
	}
}

// Channel is one decoded channel of a bone. Values are in wire units:
// rotations are radians.
type Channel struct {
	Kind     Kind
	Encoding Encoding
	Min      mgl32.Vec3 // constant value, or range minimum
	Max      mgl32.Vec3 // range maximum
	Quat     mgl32.Quat
}

// Dequantize maps a 16-bit sample linearly onto [min, max].
func Dequantize(min, max float32, sample uint16) float32 {
	return min + (max-min)*(float32(sample)/float32(0xFFFF))
}

// Sample returns the channel value for one frame's three samples.
func (c *Channel) Sample(x, y, z uint16) mgl32.Vec3 {
	return mgl32.Vec3{
		Dequantize(c.Min[0], c.Max[0], x),
		Dequantize(c.Min[1], c.Max[1], y),
		Dequantize(c.Min[2], c.Max[2], z),
	}
}

// QuatToEuler converts a quaternion to X, Y, Z Euler angles in radians for
// the Z*Y*X composition FrameState.Transform uses.
func QuatToEuler(q mgl32.Quat) mgl32.Vec3 {
	q = q.Normalize()
	w, x, y, z := float64(q.W), float64(q.V[0]), float64(q.V[1]), float64(q.V[2])

	sinp := 2 * (w*y - z*x)
	if sinp > 1 {
		sinp = 1
	} else if sinp < -1 {
		sinp = -1
	}

	return mgl32.Vec3{
		float32(math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))),
		float32(math.Asin(sinp)),
		float32(math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))),
	}
}
