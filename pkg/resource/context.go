package resource

import (
	"strings"

	"github.com/stagekit/resnode/pkg/labels"
	"github.com/stagekit/resnode/pkg/region"
)

// DefaultNamePrefix is stripped from container names before matching label
// files ("STGBATTLEFIELD" matches "Battlefield.txt").
const DefaultNamePrefix = "STG"

// BoneNamer resolves bone hashes to display names.
type BoneNamer interface {
	BoneName(hash uint32) (string, bool)
}

// Context carries the collaborators a decode needs. It is handed to every
// node of a tree at Initialize time.
type Context struct {
	Registry *Registry
	// Skeleton names OMO bones; nil leaves bones named by hash.
	Skeleton BoneNamer
	// Labels supplies attribute-table interpretations; nil means only the
	// generated default is offered.
	Labels *labels.Store
	// NamePrefix overrides DefaultNamePrefix when non-empty.
	NamePrefix string
}

// LabelName strips the name prefix, ignoring case.
func (c *Context) LabelName(name string) string {
	prefix := DefaultNamePrefix
	if c != nil && c.NamePrefix != "" {
		prefix = c.NamePrefix
	}
	if len(name) >= len(prefix) && strings.EqualFold(name[:len(prefix)], prefix) {
		return name[len(prefix):]
	}
	return name
}

// Parse dispatches src through the context's registry as a child of parent.
func (c *Context) Parse(parent Node, name string, src region.Region) Node {
	var reg *Registry
	if c != nil {
		reg = c.Registry
	}
	return reg.TryParse(parent, name, src, c)
}
