package runtime

import (
	"bytes"

	"github.com/aretw0/fold/pkg/domain"
)

// region is one diverted subtree or sibling run.
type region struct {
	num    int
	id     string
	spec   int
	parent int
	// level is the path length of the start element; later members of a
	// sibling run sit at the same level.
	level int
	// runs marks regions that outlive their start element.
	runs bool
	end  *domain.Selector
	tag  string
	buf  bytes.Buffer
	open bool
}

// regionSet is an arena of regions plus the stack of open ones.
type regionSet struct {
	all   []*region
	stack []int
	used  []bool
}

func newRegionSet(specs int) regionSet {
	return regionSet{used: make([]bool, specs)}
}

func (rs *regionSet) top() *region {
	if len(rs.stack) == 0 {
		return nil
	}
	return rs.all[rs.stack[len(rs.stack)-1]]
}

// open allocates the next region id for the idx-th spec and pushes it.
func (rs *regionSet) open(idx int, spec domain.RegionSpec, level int, tag string, extent domain.RegionExtent) *region {
	parent := -1
	if t := rs.top(); t != nil {
		parent = t.num
	}
	r := &region{
		num:    len(rs.all),
		id:     domain.RegionID(len(rs.all)),
		spec:   idx,
		parent: parent,
		level:  level,
		runs:   spec.HasEnd() || extent == domain.ExtentSiblings,
		end:    spec.End,
		tag:    tag,
		open:   true,
	}
	rs.used[idx] = true
	rs.all = append(rs.all, r)
	rs.stack = append(rs.stack, r.num)
	return r
}

// pop closes the innermost open region.
func (rs *regionSet) pop() *region {
	r := rs.top()
	if r == nil {
		return nil
	}
	rs.stack = rs.stack[:len(rs.stack)-1]
	r.open = false
	return r
}

// endedAt returns the outermost open region at level whose end selector
// matches, or nil. Regions at level are always the top of the stack.
func (rs *regionSet) endedAt(level int, matches func(domain.Selector) bool) *region {
	for _, n := range rs.stack {
		r := rs.all[n]
		if r.level == level && r.end != nil && matches(*r.end) {
			return r
		}
	}
	return nil
}

// roots returns the top-level regions in id order.
func (rs *regionSet) roots() []*region {
	var out []*region
	for _, r := range rs.all {
		if r.parent < 0 {
			out = append(out, r)
		}
	}
	return out
}

func (rs *regionSet) parentID(r *region) string {
	if r.parent < 0 {
		return ""
	}
	return rs.all[r.parent].id
}
