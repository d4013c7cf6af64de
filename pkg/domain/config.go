package domain

import (
	"fmt"
	"strings"
)

// RegionIDPrefix prefixes every region id ("panel-id.0", "panel-id.1", ...).
const RegionIDPrefix = "panel-id"

// RegionAttr is the attribute stamped on the top-level elements of a region.
const RegionAttr = "panel-id"

// RegionID formats the identifier of the n-th region of a document.
func RegionID(n int) string {
	return fmt.Sprintf("%s.%d", RegionIDPrefix, n)
}

// RegionSpec declares one region: it starts at the element matched by Start
// and, when End is set, stops before the first later sibling matched by End.
type RegionSpec struct {
	Start Selector
	End   *Selector
}

// HasEnd reports whether the spec carries an end selector.
func (r RegionSpec) HasEnd() bool { return r.End != nil && !r.End.IsZero() }

func (r RegionSpec) String() string {
	if !r.HasEnd() {
		return r.Start.String()
	}
	return r.Start.String() + ":" + r.End.String()
}

// CriticalLineConfig is the ordered list of region specs for one document.
// It is shared read-only between documents once parsed.
type CriticalLineConfig struct {
	Regions []RegionSpec
}

// Len returns the number of region specs.
func (c *CriticalLineConfig) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Regions)
}

// String returns the canonical text form, one "start[:end]," entry per region.
// This is the echo embedded in split responses.
func (c *CriticalLineConfig) String() string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	for _, r := range c.Regions {
		b.WriteString(r.String())
		b.WriteByte(',')
	}
	return b.String()
}

// RegionExtent controls how far a region without an end selector reaches.
type RegionExtent int

const (
	// ExtentSubtree closes the region with its start element.
	ExtentSubtree RegionExtent = iota
	// ExtentSiblings keeps the region open over the following siblings until
	// the parent element closes.
	ExtentSiblings
)

func (e RegionExtent) String() string {
	if e == ExtentSiblings {
		return "siblings"
	}
	return "subtree"
}

// ParseRegionExtent parses "subtree" or "siblings".
func ParseRegionExtent(s string) (RegionExtent, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "subtree":
		return ExtentSubtree, nil
	case "siblings":
		return ExtentSiblings, nil
	}
	return ExtentSubtree, fmt.Errorf("unknown region extent %q", s)
}

// IndexMode controls how positional predicates count siblings.
type IndexMode int

const (
	// IndexAmongSiblings counts every rendering element sibling.
	IndexAmongSiblings IndexMode = iota
	// IndexAmongSameTag counts only rendering siblings with the same tag.
	IndexAmongSameTag
)

func (m IndexMode) String() string {
	if m == IndexAmongSameTag {
		return "same-tag"
	}
	return "siblings"
}

// ParseIndexMode parses "siblings" or "same-tag".
func ParseIndexMode(s string) (IndexMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "siblings":
		return IndexAmongSiblings, nil
	case "same-tag", "sametag":
		return IndexAmongSameTag, nil
	}
	return IndexAmongSiblings, fmt.Errorf("unknown index mode %q", s)
}
