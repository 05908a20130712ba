package resource

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stagekit/resnode/pkg/region"
)

// Open reads the file at path and decodes it as a root node named after the
// file stem.
func Open(path string, ctx *Context) (Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return ctx.Parse(nil, name, region.New(data)), nil
}

// Encode rebuilds n into a freshly allocated buffer of ComputeSize bytes.
// The size is computed once, so nodes that serialise while sizing do that work
// a single time.
func Encode(n Node) ([]byte, error) {
	b := n.Meta()
	size := b.ComputeSize()
	buf := make([]byte, size)
	if err := b.rebuild(region.New(buf), size); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteFile rebuilds n and writes the result to path.
func WriteFile(path string, n Node) error {
	data, err := Encode(n)
	if err != nil {
		return fmt.Errorf("encode %s: %w", n.Meta().Name(), err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Walk visits n and its descendants depth-first, populating as it goes.
// Returning an error from fn stops the walk.
func Walk(n Node, fn func(Node, int) error) error {
	return walk(n, 0, fn)
}

func walk(n Node, depth int, fn func(Node, int) error) error {
	if err := fn(n, depth); err != nil {
		return err
	}
	for _, c := range n.Meta().Children() {
		if err := walk(c, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// Diagnostics collects every diagnostic in the subtree rooted at n.
func Diagnostics(n Node) []Diagnostic {
	var out []Diagnostic
	Walk(n, func(c Node, _ int) error {
		out = append(out, c.Meta().Diagnostics()...)
		return nil
	})
	return out
}
