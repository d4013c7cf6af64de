package domain

// Attribute is one name/value pair of a start tag. An empty Value renders
// as a bare attribute name.
type Attribute struct {
	Name  string
	Value string
}

// Element is a start tag delivered by the producer.
type Element struct {
	Tag   string
	Attrs []Attribute
	// SelfClosing is set for "<tag/>" syntax.
	SelfClosing bool
	// Raw holds the original bytes of the tag, if known. When empty the tag
	// is rebuilt from Tag and Attrs.
	Raw []byte
}

// Attr returns the value of the named attribute.
func (e Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// EndTag is a close event. Implicit closes (void elements, elements closed by
// end of stream or by an outer end tag) write nothing.
type EndTag struct {
	Tag      string
	Raw      []byte
	Implicit bool
}

var nonRendering = map[string]bool{
	"script":   true,
	"noscript": true,
	"style":    true,
	"link":     true,
}

// IsNonRendering reports whether tag never contributes visible layout.
// Such elements do not count as siblings and never bound a region.
func IsNonRendering(tag string) bool { return nonRendering[tag] }

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "keygen": true, "link": true,
	"meta": true, "param": true, "source": true, "track": true, "wbr": true,
}

// IsVoid reports whether tag never has content or an end tag.
func IsVoid(tag string) bool { return voidElements[tag] }
