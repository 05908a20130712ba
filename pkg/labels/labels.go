// Package labels models human-authored attribute label files: ordered lists of
// (name, type, description) triples that give meaning to the slots of a flat
// attribute table.
//
// File format, one record per slot, records separated by blank lines:
//
//	Name of slot
//	<type: 0 float, 1 int, 2 degrees, 3 either>
//	Free-form description, any number of lines
//
// Lines starting with '#' are comments.
package labels

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Type is the declared interpretation of a slot.
type Type int

const (
	TypeFloat   Type = 0
	TypeInt     Type = 1
	TypeDegrees Type = 2 // float shown in degrees, stored as radians
	TypeEither  Type = 3
)

// String returns the type name.
func (t Type) String() string {
	switch t {
	case TypeFloat:
		return "float"
	case TypeInt:
		return "int"
	case TypeDegrees:
		return "degrees"
	case TypeEither:
		return "either"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Slot describes one 4-byte cell of an attribute table.
type Slot struct {
	Name        string
	Type        Type
	Description string
}

// Interpretation is an ordered slot labelling for tables of exactly len(Slots)
// entries. Interpretations are immutable once loaded.
type Interpretation struct {
	Slots      []Slot
	SourceFile string
}

// Count returns the number of slots the interpretation declares.
func (i *Interpretation) Count() int {
	return len(i.Slots)
}

// Stem returns the source file name without directory or extension.
func (i *Interpretation) Stem() string {
	base := filepath.Base(i.SourceFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ParseError reports a malformed record.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// Parse reads an interpretation from r. source is recorded as SourceFile and
// used in error messages.
func Parse(r io.Reader, source string) (*Interpretation, error) {
	interp := &Interpretation{SourceFile: source}
	scanner := bufio.NewScanner(r)

	var record []string
	recordStart := 0
	lineNo := 0

	flush := func() error {
		if len(record) == 0 {
			return nil
		}
		if len(record) < 2 {
			return &ParseError{File: source, Line: recordStart, Msg: fmt.Sprintf("record %q has no type line", record[0])}
		}
		typ, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil || typ < int(TypeFloat) || typ > int(TypeEither) {
			return &ParseError{File: source, Line: recordStart + 1, Msg: fmt.Sprintf("invalid type %q", record[1])}
		}
		interp.Slots = append(interp.Slots, Slot{
			Name:        strings.TrimSpace(record[0]),
			Type:        Type(typ),
			Description: strings.Join(record[2:], "\n"),
		})
		record = record[:0]
		return nil
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.HasPrefix(line, "#") {
			continue
		}
		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		if len(record) == 0 {
			recordStart = lineNo
		}
		record = append(record, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return interp, nil
}

// ParseFile parses the label file at path.
func ParseFile(path string) (*Interpretation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open label file: %w", err)
	}
	defer f.Close()

	return Parse(f, path)
}

// WriteTo writes the interpretation in label-file format.
func (i *Interpretation) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	for idx, s := range i.Slots {
		if idx > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(s.Name)
		sb.WriteString("\n")
		sb.WriteString(strconv.Itoa(int(s.Type)))
		sb.WriteString("\n")
		if s.Description != "" {
			sb.WriteString(s.Description)
			sb.WriteString("\n")
		}
	}
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// Save writes the interpretation to its SourceFile, creating parent directories.
func (i *Interpretation) Save() error {
	if err := os.MkdirAll(filepath.Dir(i.SourceFile), 0755); err != nil {
		return fmt.Errorf("create label dir: %w", err)
	}

	f, err := os.Create(i.SourceFile)
	if err != nil {
		return fmt.Errorf("create label file: %w", err)
	}
	defer f.Close()

	if _, err := i.WriteTo(f); err != nil {
		return fmt.Errorf("write label file: %w", err)
	}
	return nil
}
