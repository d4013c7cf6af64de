package runtime

import (
	"bytes"

	"golang.org/x/net/html"

	"github.com/aretw0/fold/pkg/domain"
)

const (
	highResAttr  = "pagespeed_high_res_src"
	onloadPrefix = "pagespeed.splitOnload();"
)

// writeStartTag rebuilds a start tag from its parsed form. Attributes with
// empty values are written bare.
func writeStartTag(buf *bytes.Buffer, el domain.Element) {
	buf.WriteByte('<')
	buf.WriteString(el.Tag)
	for _, a := range el.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Name)
		if a.Value != "" {
			buf.WriteString(`="`)
			buf.WriteString(html.EscapeString(a.Value))
			buf.WriteByte('"')
		}
	}
	if el.SelfClosing {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
}

// writeOriginalStartTag writes the producer's bytes when present.
func writeOriginalStartTag(buf *bytes.Buffer, el domain.Element) {
	if len(el.Raw) > 0 {
		buf.Write(el.Raw)
		return
	}
	writeStartTag(buf, el)
}

func writeEndTag(buf *bytes.Buffer, et domain.EndTag) {
	if et.Implicit {
		return
	}
	if len(et.Raw) > 0 {
		buf.Write(et.Raw)
		return
	}
	buf.WriteString("</")
	buf.WriteString(et.Tag)
	buf.WriteByte('>')
}

func writeComment(buf *bytes.Buffer, data []byte) {
	buf.WriteString("<!--")
	buf.Write(data)
	buf.WriteString("-->")
}

// withAttr returns a copy of el carrying name=value, replacing any existing value.
func withAttr(el domain.Element, name, value string) domain.Element {
	attrs := make([]domain.Attribute, 0, len(el.Attrs)+1)
	for _, a := range el.Attrs {
		if a.Name != name {
			attrs = append(attrs, a)
		}
	}
	attrs = append(attrs, domain.Attribute{Name: name, Value: value})
	el.Attrs = attrs
	el.Raw = nil
	return el
}

// prefixOnload rewrites the onload handler of a high resolution image so the
// client can count loaded images. It reports false when el is left unchanged.
func prefixOnload(el domain.Element) (domain.Element, bool) {
	if el.Tag != "img" {
		return el, false
	}
	if _, ok := el.Attr(highResAttr); !ok {
		return el, false
	}
	onload, ok := el.Attr("onload")
	if !ok {
		return el, false
	}
	attrs := make([]domain.Attribute, len(el.Attrs))
	copy(attrs, el.Attrs)
	for i := range attrs {
		if attrs[i].Name == "onload" {
			attrs[i].Value = onloadPrefix + onload
		}
	}
	el.Attrs = attrs
	el.Raw = nil
	return el, true
}

func beginMarker(id string) string { return "<!--GooglePanel begin " + id + "-->" }

func endMarker(id string) string { return "<!--GooglePanel end " + id + "-->" }

func isWhitespace(p []byte) bool {
	for _, c := range p {
		switch c {
		case ' ', '\t', '\n', '\r', '\f':
		default:
			return false
		}
	}
	return true
}
