package runtime

import "github.com/aretw0/fold/pkg/domain"

// frame is one open element on the path.
type frame struct {
	tag   string
	attrs []domain.Attribute
	// index is the 1-based position among counted siblings; zero for
	// non-rendering elements.
	index    int
	children int
	byTag    map[string]int
}

func (f *frame) attr(name string) (string, bool) {
	for _, a := range f.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// ElementPath is the stack of currently open elements, root first.
// A sentinel frame at the bottom counts top-level elements.
type ElementPath struct {
	mode   domain.IndexMode
	frames []frame
}

// NewElementPath returns an empty path using mode for positional indices.
func NewElementPath(mode domain.IndexMode) *ElementPath {
	return &ElementPath{mode: mode, frames: []frame{{}}}
}

// Len returns the number of open elements.
func (p *ElementPath) Len() int { return len(p.frames) - 1 }

// Top returns the tag of the innermost open element, or "" at the root.
func (p *ElementPath) Top() string {
	if p.Len() == 0 {
		return ""
	}
	return p.frames[len(p.frames)-1].tag
}

// Index returns the positional index of the innermost open element.
func (p *ElementPath) Index() int {
	if p.Len() == 0 {
		return 0
	}
	return p.frames[len(p.frames)-1].index
}

// Push opens el under the current innermost element and assigns its index.
func (p *ElementPath) Push(el domain.Element) {
	parent := &p.frames[len(p.frames)-1]
	f := frame{tag: el.Tag, attrs: el.Attrs}
	if !domain.IsNonRendering(el.Tag) {
		parent.children++
		switch p.mode {
		case domain.IndexAmongSameTag:
			if parent.byTag == nil {
				parent.byTag = make(map[string]int)
			}
			parent.byTag[el.Tag]++
			f.index = parent.byTag[el.Tag]
		default:
			f.index = parent.children
		}
	}
	p.frames = append(p.frames, f)
}

// Pop closes the innermost element. It reports false when the path is empty.
func (p *ElementPath) Pop() bool {
	if p.Len() == 0 {
		return false
	}
	p.frames = p.frames[:len(p.frames)-1]
	return true
}

// Matches reports whether sel matches the tail of the path: the last step
// against the innermost element, the one before against its parent, and so on.
func (p *ElementPath) Matches(sel domain.Selector) bool {
	n := sel.Len()
	if n == 0 || n > p.Len() {
		return false
	}
	offset := len(p.frames) - n
	for i := 0; i < n; i++ {
		if !stepMatches(sel.Step(i), &p.frames[offset+i]) {
			return false
		}
	}
	return true
}

func stepMatches(st domain.Step, f *frame) bool {
	if st.Tag != f.tag {
		return false
	}
	if st.Index > 0 && st.Index != f.index {
		return false
	}
	if st.HasAttr() {
		v, ok := f.attr(st.Attr)
		if !ok || v != st.Value {
			return false
		}
	}
	return true
}
