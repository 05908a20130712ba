package formats

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/stagekit/resnode/pkg/region"
	"github.com/stagekit/resnode/pkg/resource"
)

// ScannedFile is a file found under a scanned directory.
type ScannedFile struct {
	Path   string
	Size   int64
	Format string // registry format name; empty when nothing claims the file
}

// ScanFiles walks inputDir and identifies every regular file by its leading
// tag. Files are not decoded.
func ScanFiles(inputDir string, reg *resource.Registry) ([]ScannedFile, error) {
	var files []ScannedFile

	err := filepath.Walk(inputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		tag, err := readTag(path)
		if err != nil {
			return fmt.Errorf("read tag: %w", err)
		}

		file := ScannedFile{
			Path: path,
			Size: info.Size(),
		}
		if f, ok := reg.Match(region.New(tag)); ok {
			file.Format = f.Name
		}

		files = append(files, file)
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}

// readTag returns up to the first four bytes of the file.
func readTag(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, 4)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:n], nil
}
