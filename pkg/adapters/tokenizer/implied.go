package tokenizer

// Optional end tags: a start tag implicitly closes some of the open elements
// (HTML "in body" insertion rules, without tree reconstruction).

// closesP lists start tags that end an open p element in button scope.
var closesP = setOf(
	"address", "article", "aside", "blockquote", "center", "details", "dialog",
	"dir", "div", "dl", "fieldset", "figcaption", "figure", "footer", "form",
	"h1", "h2", "h3", "h4", "h5", "h6", "header", "hgroup", "hr", "li", "listing",
	"main", "menu", "nav", "ol", "p", "plaintext", "pre", "section", "summary",
	"table", "ul", "dd", "dt", "xmp",
)

// scopeBase stops every scoped search.
var scopeBase = setOf(
	"applet", "caption", "html", "table", "td", "th", "marquee", "object", "template",
)

var (
	buttonScope = union(scopeBase, "button")
	listScope   = union(scopeBase, "ol", "ul")
	dlScope     = union(scopeBase, "dl")
	rowScope    = setOf("html", "table", "template", "tr")
	tableScope  = setOf("html", "table", "template")
)

var headings = setOf("h1", "h2", "h3", "h4", "h5", "h6")

// impliedEnd returns how many of the open elements survive the start tag:
// open[n:] must be closed, innermost first, before tag is opened.
func impliedEnd(open []string, tag string) int {
	n := len(open)
	cut := func(i int) {
		if i >= 0 && i < n {
			n = i
		}
	}

	if closesP[tag] {
		cut(inScope(open, buttonScope, "p"))
	}
	switch {
	case headings[tag]:
		if n > 0 && headings[open[n-1]] {
			n--
		}
	case tag == "li":
		cut(inScope(open, listScope, "li"))
	case tag == "dt" || tag == "dd":
		cut(inScope(open, dlScope, "dt", "dd"))
	case tag == "td" || tag == "th":
		cut(inScope(open, rowScope, "td", "th"))
	case tag == "tr":
		cut(inScope(open, tableScope, "tr"))
		cut(inScope(open, tableScope, "td", "th"))
	case tag == "tbody" || tag == "thead" || tag == "tfoot":
		cut(inScope(open, tableScope, "tbody", "thead", "tfoot"))
		cut(inScope(open, tableScope, "tr"))
		cut(inScope(open, tableScope, "td", "th"))
	case tag == "option":
		if n > 0 && open[n-1] == "option" {
			n--
		}
	case tag == "optgroup":
		if n > 0 && open[n-1] == "option" {
			n--
		}
		if n > 0 && open[n-1] == "optgroup" {
			n--
		}
	}
	return n
}

// inScope returns the index of the innermost open element named one of
// targets, searching outward until a scope boundary; -1 when not found.
func inScope(open []string, boundary map[string]bool, targets ...string) int {
	for i := len(open) - 1; i >= 0; i-- {
		for _, t := range targets {
			if open[i] == t {
				return i
			}
		}
		if boundary[open[i]] {
			return -1
		}
	}
	return -1
}

func setOf(tags ...string) map[string]bool {
	m := make(map[string]bool, len(tags))
	for _, t := range tags {
		m[t] = true
	}
	return m
}

func union(base map[string]bool, tags ...string) map[string]bool {
	m := make(map[string]bool, len(base)+len(tags))
	for t := range base {
		m[t] = true
	}
	for _, t := range tags {
		m[t] = true
	}
	return m
}
