// Package main provides a command-line tool for inspecting and rebuilding
// stage resource files.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/stagekit/resnode/pkg/archive"
	"github.com/stagekit/resnode/pkg/config"
	"github.com/stagekit/resnode/pkg/formats"
	"github.com/stagekit/resnode/pkg/omo"
	"github.com/stagekit/resnode/pkg/resource"
	"github.com/stagekit/resnode/pkg/tbrm"
)

var (
	mode           string
	inputPath      string
	outputPath     string
	configPath     string
	labelDir       string
	skeletonPath   string
	namePrefix     string
	level          int
	boneFilter     string
	saveDefault    bool
	forceOverwrite bool
)

func init() {
	flag.StringVar(&mode, "mode", "", "Operation mode: inspect, frames, labels, rebuild, scan")
	flag.StringVar(&inputPath, "input", "", "Resource file to read (a directory for scan mode)")
	flag.StringVar(&outputPath, "output", "", "Output file for rebuild mode")
	flag.StringVar(&configPath, "config", "", "Optional JSON config file")
	flag.StringVar(&labelDir, "labels", "", "Directory of attribute label files (default TBRM)")
	flag.StringVar(&skeletonPath, "skeleton", "", "JSON skeleton table for bone names")
	flag.StringVar(&namePrefix, "prefix", "", "Prefix stripped from container names when matching labels (default STG)")
	flag.IntVar(&level, "level", 0, "zstd level used when an edited archive is recompressed")
	flag.StringVar(&boneFilter, "bone", "", "Only print frames for this bone name")
	flag.BoolVar(&saveDefault, "save-default", false, "Write the generated label file for each attribute table")
	flag.BoolVar(&forceOverwrite, "force", false, "Allow overwriting an existing output file")
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := validateFlags(); err != nil {
		flag.Usage()
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, err := newContext(cfg)
	if err != nil {
		return err
	}

	if mode == "scan" {
		return runScan(ctx)
	}

	root, err := resource.Open(inputPath, ctx)
	if err != nil {
		return err
	}
	defer root.Meta().Release()

	switch mode {
	case "inspect":
		err = runInspect(root)
	case "frames":
		err = runFrames(root)
	case "labels":
		err = runLabels(root)
	case "rebuild":
		err = runRebuild(root, cfg)
	default:
		err = fmt.Errorf("unknown mode: %s", mode)
	}

	printDiagnostics(root)
	return err
}

func validateFlags() error {
	if mode == "" {
		return fmt.Errorf("mode is required")
	}
	if inputPath == "" {
		return fmt.Errorf("input file is required")
	}

	switch mode {
	case "inspect", "frames", "labels", "scan":
	case "rebuild":
		if outputPath == "" {
			return fmt.Errorf("rebuild mode requires -output")
		}
	default:
		return fmt.Errorf("mode must be 'inspect', 'frames', 'labels', 'rebuild' or 'scan'")
	}

	return nil
}

func loadConfig() (config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return cfg, err
		}
	}

	cfg.Resolve(config.Flags{
		LabelDir:         labelDir,
		SkeletonPath:     skeletonPath,
		NamePrefix:       namePrefix,
		CompressionLevel: level,
	})
	return cfg, nil
}

func newContext(cfg config.Config) (*resource.Context, error) {
	opts := formats.Options{
		LabelDir:   cfg.LabelDir,
		NamePrefix: cfg.NamePrefix,
	}

	if cfg.SkeletonPath != "" {
		skel, err := omo.LoadSkeleton(cfg.SkeletonPath)
		if err != nil {
			return nil, err
		}
		fmt.Printf("Skeleton loaded: %d bones from %s\n", len(skel.Bones), cfg.SkeletonPath)
		opts.Skeleton = skel
	}

	return formats.NewContext(opts), nil
}

func runInspect(root resource.Node) error {
	return resource.Walk(root, func(n resource.Node, depth int) error {
		b := n.Meta()
		fmt.Printf("%s%s [%s] %d bytes", strings.Repeat("  ", depth), b.Name(), n.Type(), b.Source().Len())

		switch v := n.(type) {
		case *archive.Node:
			h := v.Header()
			fmt.Printf(" %s %d -> %d", v.Method(), h.CompressedLength, h.Length)
		case *omo.Node:
			h := v.Header()
			fmt.Printf(" frames=%d frameSize=%d bones=%d", h.FrameCount, h.FrameSize, h.BoneCount)
		case *omo.Bone:
			fmt.Printf(" hash=%08X flags=%08X fixed=%d frame=%d",
				v.Hash(), uint32(v.Flags()), v.FixedSegmentLength(), v.FrameSegmentLength())
		case *tbrm.Table:
			fmt.Printf(" entries=%d unk=(%d, %d, %d)", v.NumEntries(), v.Unk0(), v.Unk1(), v.Unk2())
		}
		fmt.Println()
		return nil
	})
}

func runFrames(root resource.Node) error {
	found := 0
	err := resource.Walk(root, func(n resource.Node, _ int) error {
		anim, ok := n.(*omo.Node)
		if !ok {
			return nil
		}
		found++
		fmt.Printf("%s: %d frames\n", anim.Path(), anim.FrameCount())

		for _, bone := range anim.Bones() {
			if boneFilter != "" && bone.Name() != boneFilter {
				continue
			}
			fmt.Printf("  %s\n", bone.Name())
			for f, st := range bone.FrameStates() {
				fmt.Printf("    %4d S(%g, %g, %g) R(%g, %g, %g) T(%g, %g, %g)\n", f,
					st.Scale[0], st.Scale[1], st.Scale[2],
					st.Rotate[0], st.Rotate[1], st.Rotate[2],
					st.Translate[0], st.Translate[1], st.Translate[2])
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if found == 0 {
		return fmt.Errorf("no OMO animation in %s", inputPath)
	}
	return nil
}

func runLabels(root resource.Node) error {
	found := 0
	err := resource.Walk(root, func(n resource.Node, _ int) error {
		table, ok := n.(*tbrm.Table)
		if !ok {
			return nil
		}
		found++

		interps := table.PossibleInterpretations()
		fmt.Printf("%s: %d entries, %d interpretations\n", table.Path(), table.NumEntries(), len(interps))
		for i, interp := range interps {
			fmt.Printf("  [%d] %s\n", i, interp.SourceFile)
		}

		best := interps[0]
		for i, slot := range best.Slots {
			value, err := table.Format(i, slot.Type)
			if err != nil {
				return err
			}
			fmt.Printf("    %-24s %-8s %s\n", slot.Name, slot.Type, value)
		}

		if saveDefault {
			def := table.DefaultInterpretation()
			if err := def.Save(); err != nil {
				return fmt.Errorf("save default labels: %w", err)
			}
			fmt.Printf("Default labels written to %s\n", def.SourceFile)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if found == 0 {
		return fmt.Errorf("no attribute table in %s", inputPath)
	}
	return nil
}

func runRebuild(root resource.Node, cfg config.Config) error {
	if !forceOverwrite {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("output file exists (use -force to override)")
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("check output file: %w", err)
		}
	}

	resource.Walk(root, func(n resource.Node, _ int) error {
		if arc, ok := n.(*archive.Node); ok {
			arc.SetCompressionLevel(cfg.CompressionLevel)
		}
		return nil
	})

	data, err := resource.Encode(root)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if bytes.Equal(data, root.Meta().Source().Bytes()) {
		fmt.Printf("Rebuild complete: %d bytes, identical to input. Written to %s\n", len(data), outputPath)
	} else {
		fmt.Printf("Rebuild complete: %d bytes (input %d), contents differ. Written to %s\n",
			len(data), root.Meta().Source().Len(), outputPath)
	}
	return nil
}

func runScan(ctx *resource.Context) error {
	fmt.Println("Scanning input directory...")
	files, err := formats.ScanFiles(inputPath, ctx.Registry)
	if err != nil {
		return fmt.Errorf("scan files: %w", err)
	}

	counts := make(map[string]int)
	warned := 0
	for _, f := range files {
		if f.Format == "" {
			counts["unknown"]++
			continue
		}
		counts[f.Format]++

		root, err := resource.Open(f.Path, ctx)
		if err != nil {
			return err
		}
		diags := resource.Diagnostics(root)
		if len(diags) > 0 {
			warned++
			fmt.Fprintf(os.Stderr, "%s: %d warnings\n", f.Path, len(diags))
		}
		root.Meta().Release()
	}

	fmt.Printf("Found %d files:", len(files))
	for _, name := range append(ctx.Registry.Formats(), "unknown") {
		if counts[name] > 0 {
			fmt.Printf(" %s=%d", name, counts[name])
		}
	}
	fmt.Println()
	if warned > 0 {
		fmt.Printf("%d files decoded with warnings\n", warned)
	}
	return nil
}

func printDiagnostics(root resource.Node) {
	diags := resource.Diagnostics(root)
	if len(diags) == 0 {
		return
	}

	fmt.Fprintf(os.Stderr, "%d warnings:\n", len(diags))
	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "  %s\n", d)
	}
}
