package domain

import (
	"strconv"
	"strings"
)

// Step is one element of a Selector path.
// Attr and Value are set together; Index is 1-based and zero means "any position".
type Step struct {
	Tag   string
	Attr  string
	Value string
	Index int
}

// HasAttr reports whether the step carries an attribute predicate.
func (s Step) HasAttr() bool { return s.Attr != "" }

// String renders the step in critical-line syntax.
func (s Step) String() string {
	var b strings.Builder
	b.WriteString(s.Tag)
	if s.HasAttr() {
		b.WriteString(`[@`)
		b.WriteString(s.Attr)
		b.WriteString(` = "`)
		b.WriteString(s.Value)
		b.WriteString(`"]`)
	}
	if s.Index > 0 {
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(s.Index))
		b.WriteByte(']')
	}
	return b.String()
}

// Selector is an immutable, non-empty sequence of steps matched against the
// tail of an element path. The zero value matches nothing.
type Selector struct {
	steps []Step
}

// NewSelector builds a Selector from steps. The slice is copied.
func NewSelector(steps ...Step) Selector {
	cp := make([]Step, len(steps))
	copy(cp, steps)
	return Selector{steps: cp}
}

// Len returns the number of steps.
func (s Selector) Len() int { return len(s.steps) }

// Step returns the i-th step, counting from the outermost one.
func (s Selector) Step(i int) Step { return s.steps[i] }

// Steps returns a copy of the steps.
func (s Selector) Steps() []Step {
	cp := make([]Step, len(s.steps))
	copy(cp, s.steps)
	return cp
}

// IsZero reports whether the selector has no steps.
func (s Selector) IsZero() bool { return len(s.steps) == 0 }

// Equal reports whether two selectors have identical steps.
func (s Selector) Equal(o Selector) bool {
	if len(s.steps) != len(o.steps) {
		return false
	}
	for i := range s.steps {
		if s.steps[i] != o.steps[i] {
			return false
		}
	}
	return true
}

func (s Selector) String() string {
	parts := make([]string, len(s.steps))
	for i, st := range s.steps {
		parts[i] = st.String()
	}
	return strings.Join(parts, "/")
}
