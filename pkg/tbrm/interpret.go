package tbrm

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/stagekit/resnode/pkg/labels"
)

// DefaultLabelDir is where label files live when the context has no store.
const DefaultLabelDir = "TBRM"

// Class is the default heuristic's guess for a slot.
type Class int

const (
	ClassAmbiguous Class = iota // all zero bits, float or int
	ClassFloat
	ClassUnknown // float-shaped bits with an implausible magnitude
	ClassInt
)

func (c Class) String() string {
	switch c {
	case ClassAmbiguous:
		return "ambiguous"
	case ClassFloat:
		return "float"
	case ClassUnknown:
		return "unknown"
	default:
		return "int"
	}
}

// Classify guesses whether a slot holds a float or an integer. Generated
// label files reference these guesses by name prefix, so the thresholds must
// not change.
func Classify(bits uint32) Class {
	if bits == 0 {
		return ClassAmbiguous
	}

	f := math.Float32frombits(bits)
	if bits>>24 != 0 && int32(bits) != -1 && !math.IsNaN(float64(f)) {
		abs := math.Abs(float64(f))
		if abs > 0.0000001 && abs < 10000000 {
			return ClassFloat
		}
		return ClassUnknown
	}
	return ClassInt
}

// DefaultSlot builds the generated label for the slot at byte offset off
// (counted from the start of the table, so the first slot is 0x010).
func DefaultSlot(off int, bits uint32) labels.Slot {
	name := fmt.Sprintf("0x%03X", off)
	f := math.Float32frombits(bits)

	switch Classify(bits) {
	case ClassAmbiguous:
		return labels.Slot{Name: name, Type: labels.TypeFloat,
			Description: "Default: 0 (could be int or float - be careful)"}
	case ClassFloat:
		return labels.Slot{Name: name, Type: labels.TypeFloat,
			Description: fmt.Sprintf("Default (float): %s (%08X)", formatDefault(f), bits)}
	case ClassUnknown:
		return labels.Slot{Name: "~" + name, Type: labels.TypeInt,
			Description: fmt.Sprintf("Default (unknown type): %d (%08X)", bits, bits)}
	default:
		return labels.Slot{Name: "*" + name, Type: labels.TypeInt,
			Description: fmt.Sprintf("Default (int): %d (%08X)", bits, bits)}
	}
}

// formatDefault renders f the way saved label files spell defaults: plain
// decimal digits, switching to an upper-case exponent ("1E-05") only for
// magnitudes below 1e-4 or from 1e15 up.
func formatDefault(f float32) string {
	e := strconv.FormatFloat(float64(f), 'e', -1, 32)
	mant, exp, _ := strings.Cut(e, "e")
	if x, err := strconv.Atoi(exp); err == nil && x >= -4 && x < 15 {
		return strconv.FormatFloat(float64(f), 'f', -1, 32)
	}
	return mant + "E" + exp
}

// labelName is the root container's name with the game prefix stripped.
func (t *Table) labelName() string {
	return t.Context().LabelName(t.Root().Meta().Name())
}

func (t *Table) labelDir() string {
	if ctx := t.Context(); ctx != nil && ctx.Labels != nil {
		return ctx.Labels.Dir()
	}
	return DefaultLabelDir
}

// DefaultInterpretation labels every slot with the heuristic's guess. Its
// SourceFile is where a saved copy would be picked up for this container.
func (t *Table) DefaultInterpretation() *labels.Interpretation {
	slots := make([]labels.Slot, t.NumEntries())
	for i := range slots {
		bits, _ := t.Raw(i)
		slots[i] = DefaultSlot(HeaderSize+i*SlotSize, bits)
	}

	return &labels.Interpretation{
		Slots:      slots,
		SourceFile: filepath.Join(t.labelDir(), t.labelName()+".txt"),
	}
}

// PossibleInterpretations returns the label sets that fit this table, best
// first. Label files with the right slot count are candidates; one named after
// the root container sorts first. When no file matches by name the generated
// default is offered as well.
func (t *Table) PossibleInterpretations() []*labels.Interpretation {
	var candidates []*labels.Interpretation

	ctx := t.Context()
	if ctx != nil && ctx.Labels != nil {
		for _, err := range ctx.Labels.Load() {
			t.Warnf("label file skipped: %v", err)
		}
		if HeaderSize+t.NumEntries()*SlotSize == t.Source().Len() {
			candidates = ctx.Labels.WithCount(t.NumEntries())
		}
	}

	name := t.labelName()
	byName := func(i *labels.Interpretation) bool {
		return strings.EqualFold(i.Stem(), name)
	}

	matched := false
	for _, c := range candidates {
		if byName(c) {
			matched = true
			break
		}
	}
	if !matched {
		candidates = append(candidates, t.DefaultInterpretation())
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return byName(candidates[a]) && !byName(candidates[b])
	})
	return candidates
}

// Format renders slot index as typ for display. Degrees slots hold radians.
func (t *Table) Format(index int, typ labels.Type) (string, error) {
	bits, err := t.Raw(index)
	if err != nil {
		return "", err
	}

	f := math.Float32frombits(bits)
	switch typ {
	case labels.TypeFloat:
		return strconv.FormatFloat(float64(f), 'g', -1, 32), nil
	case labels.TypeInt:
		return strconv.Itoa(int(int32(bits))), nil
	case labels.TypeDegrees:
		return strconv.FormatFloat(float64(f)*180/math.Pi, 'g', 6, 64) + "°", nil
	default:
		return fmt.Sprintf("%s / %d", strconv.FormatFloat(float64(f), 'g', -1, 32), int32(bits)), nil
	}
}
