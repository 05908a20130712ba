package archive

import (
	"bytes"
	"fmt"

	"github.com/stagekit/resnode/pkg/region"
	"github.com/stagekit/resnode/pkg/resource"
)

var (
	MatchZstd = resource.TagMatcher(Magic)
	MatchLZ4  = resource.TagMatcher(MagicLZ4)
)

// New returns an empty archive node for the registry.
func New() resource.Node {
	return &Node{level: DefaultCompressionLevel}
}

// Node is a compressed container holding exactly one resource. The payload
// is inflated on populate and handed to the registry under the container's
// own name.
type Node struct {
	resource.Base

	header Header
	level  int
	data   []byte // decompressed payload

	// Complete re-encoded archive, set by OnCalculateSize for a changed
	// subtree. Rebuild always asks for the size first, so OnRebuild sees the
	// matching bytes.
	packed  []byte
	packErr error
}

func (n *Node) Type() resource.Type { return resource.TypeArchive }

func (n *Node) OnInitialize(ctx *resource.Context) (bool, error) {
	src := n.Source()
	if _, err := src.Slice(0, HeaderSize); err != nil {
		return false, fmt.Errorf("read header: %w", err)
	}
	n.header.DecodeFrom(src.Bytes())

	if err := n.header.Validate(); err != nil {
		n.Warnf("archive left packed: %v", err)
		return false, nil
	}
	if _, err := src.Slice(HeaderSize, int(n.header.CompressedLength)); err != nil {
		return false, fmt.Errorf("compressed payload: %w", err)
	}
	return true, nil
}

func (n *Node) OnPopulate(ctx *resource.Context) error {
	data, err := ReadAll(bytes.NewReader(n.Source().Bytes()))
	if err != nil {
		return err
	}
	n.data = data

	ctx.Parse(n, n.Name(), region.New(n.data))
	return nil
}

func (n *Node) OnCalculateSize() int {
	n.packed, n.packErr = nil, nil
	if !n.HasChanges() {
		return n.Source().Len()
	}

	n.packed, n.packErr = n.pack()
	if n.packErr != nil {
		return n.Source().Len()
	}
	return len(n.packed)
}

func (n *Node) pack() ([]byte, error) {
	children := n.Children()
	if len(children) != 1 {
		return nil, fmt.Errorf("archive holds %d resources, want 1", len(children))
	}

	raw, err := resource.Encode(children[0])
	if err != nil {
		return nil, err
	}
	return Marshal(raw, WithMethod(n.header.Method()), WithCompressionLevel(n.level))
}

// OnRebuild copies the original bytes when nothing below changed and
// recompresses otherwise.
func (n *Node) OnRebuild(dst region.Region) error {
	if n.packErr != nil {
		return n.packErr
	}
	if n.packed == nil {
		return dst.CopyFrom(0, n.Source().Bytes())
	}

	packed := n.packed
	n.packed = nil
	return dst.CopyFrom(0, packed)
}

func (n *Node) OnRelease() {
	n.data = nil
	n.packed = nil
}

// Header returns the decoded header.
func (n *Node) Header() Header {
	return n.header
}

// Method returns the payload compression.
func (n *Node) Method() Method {
	return n.header.Method()
}

// Payload returns the decompressed payload, or nil before populate.
func (n *Node) Payload() []byte {
	return n.data
}

// SetCompressionLevel sets the zstd level used when a changed subtree is
// recompressed. It does not mark the node dirty.
func (n *Node) SetCompressionLevel(level int) {
	n.level = level
}
