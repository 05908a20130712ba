package resource

import (
	"github.com/stagekit/resnode/pkg/region"
)

// Matcher reports whether a region belongs to a format. It must not fail;
// a region too short to carry the tag simply does not match.
type Matcher func(src region.Region) bool

// Factory creates an uninitialized node for a format.
type Factory func() Node

// Format is one entry of a Registry.
type Format struct {
	Name  string
	Match Matcher
	New   Factory
}

// TagMatcher matches regions whose first four bytes equal tag.
func TagMatcher(tag [4]byte) Matcher {
	return func(src region.Region) bool {
		return src.HasTag(tag)
	}
}

// Registry is an ordered dispatch table. The first matching format wins, so
// registration order is the tie-break between formats whose tags could collide.
type Registry struct {
	formats []Format
}

// NewRegistry creates a registry holding formats in the given order.
func NewRegistry(formats ...Format) *Registry {
	r := &Registry{}
	for _, f := range formats {
		r.Register(f.Name, f.Match, f.New)
	}
	return r
}

// Register appends a format after all existing ones.
func (r *Registry) Register(name string, match Matcher, factory Factory) {
	r.formats = append(r.formats, Format{Name: name, Match: match, New: factory})
}

// Formats returns the registered format names in dispatch order.
func (r *Registry) Formats() []string {
	names := make([]string, len(r.formats))
	for i, f := range r.formats {
		names[i] = f.Name
	}
	return names
}

// Match returns the first format claiming src.
func (r *Registry) Match(src region.Region) (Format, bool) {
	if r == nil {
		return Format{}, false
	}
	for _, f := range r.formats {
		if f.Match(src) {
			return f, true
		}
	}
	return Format{}, false
}

// TryParse decodes src as a child of parent (nil for a root). It never fails:
// unmatched regions, and regions whose decoder rejects them, come back as Raw
// nodes carrying the original bytes. A rejected decode leaves a diagnostic on
// the Raw node.
func (r *Registry) TryParse(parent Node, name string, src region.Region, ctx *Context) Node {
	if f, ok := r.Match(src); ok {
		n := f.New()
		n.Meta().name = name
		err := Initialize(n, parent, src, ctx)
		if err == nil {
			return n
		}

		raw := NewRaw(name, parent, src, ctx)
		raw.Warnf("%s decode failed, kept as raw data: %v", f.Name, err)
		return raw
	}

	return NewRaw(name, parent, src, ctx)
}

// NewRaw creates an initialized Raw node over src, linked under parent.
func NewRaw(name string, parent Node, src region.Region, ctx *Context) *Raw {
	raw := &Raw{}
	raw.name = name
	// Raw initialization cannot fail.
	_ = Initialize(raw, parent, src, ctx)
	return raw
}
