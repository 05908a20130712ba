package omo

import (
	"testing"

	"github.com/stagekit/resnode/pkg/region"
	"github.com/stagekit/resnode/pkg/resource"
)

func benchmarkAnimation(frames, bones int) []byte {
	list := make([]testBone, bones)
	for i := range list {
		samples := make([][]uint16, frames)
		for f := range samples {
			v := uint16(f * 997)
			samples[f] = []uint16{v, v / 2, v / 3}
		}
		list[i] = scaleRangeBone(uint32(i), samples...)
	}
	return buildOMO(frames, list...)
}

// BenchmarkDecode benchmarks a full decode including every frame state.
func BenchmarkDecode(b *testing.B) {
	data := benchmarkAnimation(120, 64)

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n := &Node{}
		if err := resource.Initialize(n, nil, region.New(data), nil); err != nil {
			b.Fatal(err)
		}
		n.Children()
	}
}

// BenchmarkRebuild benchmarks re-encoding a decoded animation.
func BenchmarkRebuild(b *testing.B) {
	data := benchmarkAnimation(120, 64)
	n := &Node{}
	if err := resource.Initialize(n, nil, region.New(data), nil); err != nil {
		b.Fatal(err)
	}
	n.Children()
	dst := region.New(make([]byte, len(data)))

	b.Run("Rebuild", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if err := n.Rebuild(dst); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("Transform", func(b *testing.B) {
		states := n.Bones()[0].FrameStates()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = states[i%len(states)].Transform()
		}
	})
}
