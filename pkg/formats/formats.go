// Package formats wires every codec into the default format table.
package formats

import (
	"github.com/stagekit/resnode/pkg/archive"
	"github.com/stagekit/resnode/pkg/labels"
	"github.com/stagekit/resnode/pkg/omo"
	"github.com/stagekit/resnode/pkg/resource"
	"github.com/stagekit/resnode/pkg/tbrm"
)

// NewRegistry returns the built-in formats in dispatch order. Containers come
// first so their payloads are unwrapped before the leaf codecs are tried.
func NewRegistry() *resource.Registry {
	return resource.NewRegistry(
		resource.Format{Name: "ZSTD", Match: archive.MatchZstd, New: archive.New},
		resource.Format{Name: "LZ4F", Match: archive.MatchLZ4, New: archive.New},
		resource.Format{Name: "OMO", Match: omo.Match, New: omo.New},
		resource.Format{Name: "TBRM", Match: tbrm.MatchTBRM, New: tbrm.NewTBRM},
		resource.Format{Name: "TBGM", Match: tbrm.MatchTBGM, New: tbrm.NewTBGM},
	)
}

// Options selects the collaborators of a decode context.
type Options struct {
	LabelDir   string // empty disables label files
	NamePrefix string
	Skeleton   resource.BoneNamer
}

// NewContext builds a context over the default registry. Label stores are
// shared per directory for the life of the process.
func NewContext(opts Options) *resource.Context {
	ctx := &resource.Context{
		Registry:   NewRegistry(),
		Skeleton:   opts.Skeleton,
		NamePrefix: opts.NamePrefix,
	}
	if opts.LabelDir != "" {
		ctx.Labels = labels.Shared(opts.LabelDir)
	}
	return ctx
}
