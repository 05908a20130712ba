package omo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SkeletonBone names one bone hash.
type SkeletonBone struct {
	Name string `json:"name"`
	Hash uint32 `json:"hash"`
}

// Skeleton maps bone hashes to names. It satisfies resource.BoneNamer.
type Skeleton struct {
	Name  string
	Bones []SkeletonBone
}

// BoneName returns the name of the first bone with the given hash.
func (s *Skeleton) BoneName(hash uint32) (string, bool) {
	if s == nil {
		return "", false
	}
	for _, b := range s.Bones {
		if b.Hash == hash {
			return b.Name, true
		}
	}
	return "", false
}

// LoadSkeleton reads a JSON array of {"name", "hash"} records.
func LoadSkeleton(path string) (*Skeleton, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skeleton: %w", err)
	}

	var bones []SkeletonBone
	if err := json.Unmarshal(data, &bones); err != nil {
		return nil, fmt.Errorf("parse skeleton %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &Skeleton{Name: name, Bones: bones}, nil
}
