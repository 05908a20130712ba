package labels

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store is an append-only cache of interpretations loaded from one directory.
// Each file is read at most once, including files that failed to parse.
// Loading is serialised; readers receive snapshots and may run concurrently.
type Store struct {
	dir string

	mu     sync.Mutex
	seen   map[string]struct{}
	loaded []*Interpretation
}

// NewStore creates a store over dir. Nothing is read until Load.
func NewStore(dir string) *Store {
	return &Store{
		dir:  dir,
		seen: make(map[string]struct{}),
	}
}

var (
	sharedMu sync.Mutex
	shared   = make(map[string]*Store)
)

// Shared returns the process-wide store for dir.
func Shared(dir string) *Store {
	key := filepath.Clean(dir)

	sharedMu.Lock()
	defer sharedMu.Unlock()

	if s, ok := shared[key]; ok {
		return s
	}
	s := NewStore(key)
	shared[key] = s
	return s
}

// Dir returns the directory the store reads from.
func (s *Store) Dir() string {
	return s.dir
}

// Load scans the directory for *.txt files not seen before and parses them.
// A missing directory is not an error. Files that fail to parse are skipped and
// their errors returned; the remaining files still load.
func (s *Store) Load() []error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return []error{fmt.Errorf("scan label dir: %w", err)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".txt") {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		if _, ok := s.seen[path]; ok {
			continue
		}
		s.seen[path] = struct{}{}

		interp, err := ParseFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.loaded = append(s.loaded, interp)
	}

	return errs
}

// All returns every loaded interpretation in load order.
func (s *Store) All() []*Interpretation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Interpretation, len(s.loaded))
	copy(out, s.loaded)
	return out
}

// WithCount returns loaded interpretations declaring exactly n slots.
func (s *Store) WithCount(n int) []*Interpretation {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Interpretation
	for _, interp := range s.loaded {
		if interp.Count() == n {
			out = append(out, interp)
		}
	}
	return out
}
