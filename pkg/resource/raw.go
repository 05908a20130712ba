package resource

import (
	"github.com/stagekit/resnode/pkg/region"
)

// Raw is the opaque fallback node. It keeps its bytes untouched, so an
// unmodified Raw rebuilds to exactly its input.
type Raw struct {
	Base
	data []byte
}

func (n *Raw) Type() Type { return TypeRaw }

func (n *Raw) OnInitialize(ctx *Context) (bool, error) {
	n.data = n.src.Clone()
	return false, nil
}

func (n *Raw) OnPopulate(ctx *Context) error { return nil }

func (n *Raw) OnCalculateSize() int {
	return len(n.data)
}

func (n *Raw) OnRebuild(dst region.Region) error {
	return dst.CopyFrom(0, n.data)
}

func (n *Raw) OnRelease() {
	n.data = nil
}

// Data returns the node's current bytes.
func (n *Raw) Data() []byte {
	return n.data
}

// SetData replaces the node's bytes.
func (n *Raw) SetData(data []byte) {
	n.data = append([]byte(nil), data...)
	n.SignalChange()
}
