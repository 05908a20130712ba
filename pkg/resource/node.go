// Package resource provides the generic node tree that format codecs plug into.
//
// A node goes through four phases: Initialize decodes its fixed header,
// Populate lazily builds its children, callers mutate it through setters, and
// ComputeSize/Rebuild serialise the current state back to bytes.
package resource

import (
	"fmt"
	"strings"

	"github.com/stagekit/resnode/pkg/region"
)

// Type identifies the decoded format of a node.
type Type int

const (
	TypeUnknown Type = iota
	TypeRaw
	TypeArchive
	TypeOMO
	TypeOMOBone
	TypeTBRM
	TypeTBGM
)

// String returns the type name.
func (t Type) String() string {
	switch t {
	case TypeRaw:
		return "Raw"
	case TypeArchive:
		return "Archive"
	case TypeOMO:
		return "OMO"
	case TypeOMOBone:
		return "OMOBone"
	case TypeTBRM:
		return "TBRM"
	case TypeTBGM:
		return "TBGM"
	default:
		return "Unknown"
	}
}

// Node is implemented by every format codec. Codecs embed Base, which supplies
// the tree bookkeeping, and implement the four On* hooks.
type Node interface {
	Meta() *Base
	Type() Type

	// OnInitialize decodes the fixed header from Source and reports whether
	// the node has children to populate. It fails only on bounds errors.
	OnInitialize(ctx *Context) (bool, error)
	// OnPopulate builds children. Called at most once, after OnInitialize.
	OnPopulate(ctx *Context) error
	// OnCalculateSize returns the size Rebuild would write right now.
	OnCalculateSize() int
	// OnRebuild serialises into dst, which is exactly OnCalculateSize bytes.
	OnRebuild(dst region.Region) error
}

// Releaser is implemented by nodes that own scratch buffers.
type Releaser interface {
	OnRelease()
}

// Base carries the state shared by all nodes. The zero value is ready to be
// passed to Initialize.
type Base struct {
	self     Node
	name     string
	parent   Node // lookup only; the parent owns us, never the reverse
	children []Node
	src      region.Region
	ctx      *Context

	hasChildren bool
	populated   bool
	dirty       bool
	diags       []Diagnostic
}

// Meta returns the node's Base.
func (b *Base) Meta() *Base {
	return b
}

// Initialize binds n to its source region and parent and runs OnInitialize.
// On success n is appended to parent's children.
func Initialize(n Node, parent Node, src region.Region, ctx *Context) error {
	b := n.Meta()
	b.self = n
	b.parent = parent
	b.src = src
	b.ctx = ctx

	has, err := n.OnInitialize(ctx)
	if err != nil {
		return fmt.Errorf("initialize %s: %w", n.Type(), err)
	}
	b.hasChildren = has
	// Setters used while decoding do not count as edits.
	b.dirty = false

	if parent != nil {
		pb := parent.Meta()
		pb.children = append(pb.children, n)
	}
	return nil
}

// Name returns the display name.
func (b *Base) Name() string {
	return b.name
}

// SetName changes the display name and marks the node dirty.
func (b *Base) SetName(name string) {
	if b.name == name {
		return
	}
	b.name = name
	b.dirty = true
}

// Source returns the region the node was decoded from.
func (b *Base) Source() region.Region {
	return b.src
}

// Context returns the context the node was initialized with.
func (b *Base) Context() *Context {
	return b.ctx
}

// Parent returns the parent node, or nil for a root.
func (b *Base) Parent() Node {
	return b.parent
}

// Root walks parent links to the top of the tree.
func (b *Base) Root() Node {
	var n Node = b.self
	for n.Meta().parent != nil {
		n = n.Meta().parent
	}
	return n
}

// Path returns the slash-joined names from the root to this node.
func (b *Base) Path() string {
	var parts []string
	for n := b.self; n != nil; n = n.Meta().parent {
		parts = append(parts, n.Meta().name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// HasChildren reports whether OnInitialize found children to populate.
func (b *Base) HasChildren() bool {
	return b.hasChildren || len(b.children) > 0
}

// Populate runs OnPopulate once. Errors are also recorded as diagnostics so
// that a partially decoded subtree stays usable.
func (b *Base) Populate() error {
	if b.populated || !b.hasChildren {
		return nil
	}
	b.populated = true

	if err := b.self.OnPopulate(b.ctx); err != nil {
		b.Warnf("populate: %v", err)
		return err
	}
	return nil
}

// Children returns the node's children, populating on first use.
func (b *Base) Children() []Node {
	b.Populate()
	return b.children
}

// AddChild appends an already-initialized node and marks this node dirty.
func (b *Base) AddChild(child Node) {
	b.Populate()
	child.Meta().parent = b.self
	b.children = append(b.children, child)
	b.dirty = true
}

// RemoveChild detaches child, releases it and marks this node dirty.
func (b *Base) RemoveChild(child Node) bool {
	b.Populate()
	for i, c := range b.children {
		if c == child {
			b.children = append(b.children[:i], b.children[i+1:]...)
			child.Meta().Release()
			child.Meta().parent = nil
			b.dirty = true
			return true
		}
	}
	return false
}

// Replace swaps old for repl in place, releasing old.
func (b *Base) Replace(old, repl Node) bool {
	b.Populate()
	for i, c := range b.children {
		if c == old {
			b.children[i] = repl
			repl.Meta().parent = b.self
			old.Meta().Release()
			old.Meta().parent = nil
			b.dirty = true
			return true
		}
	}
	return false
}

// IsDirty reports whether a setter changed this node since it was decoded or
// last cleaned. It says nothing about descendants; see HasChanges.
func (b *Base) IsDirty() bool {
	return b.dirty
}

// SignalChange marks this node, and only this node, dirty.
func (b *Base) SignalChange() {
	b.dirty = true
}

// ClearDirty resets the flag on this node and every populated descendant.
func (b *Base) ClearDirty() {
	b.dirty = false
	for _, c := range b.children {
		c.Meta().ClearDirty()
	}
}

// HasChanges reports whether this node or any populated descendant is dirty.
func (b *Base) HasChanges() bool {
	if b.dirty {
		return true
	}
	for _, c := range b.children {
		if c.Meta().HasChanges() {
			return true
		}
	}
	return false
}

// ComputeSize returns the number of bytes Rebuild will write.
func (b *Base) ComputeSize() int {
	return b.self.OnCalculateSize()
}

// Rebuild serialises the node into the front of dst. dst may be larger than
// ComputeSize; a smaller dst is a bounds error.
func (b *Base) Rebuild(dst region.Region) error {
	return b.rebuild(dst, b.ComputeSize())
}

// rebuild writes the node into the front of dst given a size already
// obtained from ComputeSize.
func (b *Base) rebuild(dst region.Region, size int) error {
	out, err := dst.Slice(0, size)
	if err != nil {
		return fmt.Errorf("rebuild %s: %w", b.self.Type(), err)
	}
	return b.self.OnRebuild(out)
}

// Release drops the subtree's scratch buffers. The node must not be used
// afterwards.
func (b *Base) Release() {
	for _, c := range b.children {
		c.Meta().Release()
	}
	b.children = nil
	if r, ok := b.self.(Releaser); ok {
		r.OnRelease()
	}
	b.src = region.Region{}
}

// Warnf records a non-fatal diagnostic on this node.
func (b *Base) Warnf(format string, args ...any) {
	b.diags = append(b.diags, Diagnostic{Node: b.self, Message: fmt.Sprintf(format, args...)})
}

// Diagnostics returns the diagnostics recorded on this node only.
func (b *Base) Diagnostics() []Diagnostic {
	return b.diags
}

// Diagnostic is a non-fatal decode finding.
type Diagnostic struct {
	Node    Node
	Message string
}

func (d Diagnostic) String() string {
	if d.Node == nil {
		return d.Message
	}
	return fmt.Sprintf("%s: %s", d.Node.Meta().Path(), d.Message)
}
