package omo

import (
	"github.com/go-gl/mathgl/mgl32"
)

const rad2deg = float32(180 / 3.14159265358979323846)

// FrameState is one bone's pose at one frame. Rotate is Euler X, Y, Z in
// degrees.
type FrameState struct {
	Scale     mgl32.Vec3
	Rotate    mgl32.Vec3
	Translate mgl32.Vec3
}

// NeutralFrameState is the pose of a bone with no channels: unit scale, no
// rotation, no translation.
func NeutralFrameState() FrameState {
	return FrameState{Scale: mgl32.Vec3{1, 1, 1}}
}

// Transform composes scale, then rotation (X, then Y, then Z), then
// translation. It is derived on every call and never stored.
func (s FrameState) Transform() mgl32.Mat4 {
	rot := mgl32.HomogRotate3DZ(mgl32.DegToRad(s.Rotate[2])).
		Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(s.Rotate[1]))).
		Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(s.Rotate[0])))

	return mgl32.Translate3D(s.Translate[0], s.Translate[1], s.Translate[2]).
		Mul4(rot).
		Mul4(mgl32.Scale3D(s.Scale[0], s.Scale[1], s.Scale[2]))
}
