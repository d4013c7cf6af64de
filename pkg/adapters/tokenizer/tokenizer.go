// Package tokenizer drives a ports.EventHandler from an HTML byte stream
// using the golang.org/x/net/html tokenizer.
//
// The tokenizer does not build a tree, so this package balances tags
// itself. Void and self-closing elements get an implicit close, as do
// elements whose end tag HTML lets a later start tag imply (p, li, dt, dd,
// table rows and cells, option). An end tag closes any elements still open
// inside it, stray end tags are passed on as text, and elements open at end
// of input are closed implicitly.
package tokenizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html"

	"github.com/aretw0/fold/pkg/domain"
	"github.com/aretw0/fold/pkg/ports"
)

// countingReader tracks how many bytes the tokenizer has pulled from the source.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Drive tokenizes r and delivers the events to h, ending with EndOfStream.
// A Flush is delivered whenever every byte read so far has been turned into
// events, which mirrors the chunk boundaries of the source.
func Drive(ctx context.Context, r io.Reader, h ports.EventHandler) error {
	src := &countingReader{r: r}
	z := html.NewTokenizer(src)

	var open []string
	var consumed int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return fmt.Errorf("tokenize: %w", err)
			}
			for i := len(open) - 1; i >= 0; i-- {
				if err := h.CloseElement(domain.EndTag{Tag: open[i], Implicit: true}); err != nil {
					return err
				}
			}
			return h.EndOfStream()
		}

		raw := bytes.Clone(z.Raw())
		consumed += int64(len(raw))

		var err error
		switch tt {
		case html.TextToken:
			err = h.Text(raw)

		case html.StartTagToken, html.SelfClosingTagToken:
			el := startElement(z, raw, tt == html.SelfClosingTagToken)
			if open, err = closeImplied(h, open, el.Tag); err != nil {
				break
			}
			if err = h.OpenElement(el); err != nil {
				break
			}
			if el.SelfClosing || domain.IsVoid(el.Tag) {
				err = h.CloseElement(domain.EndTag{Tag: el.Tag, Implicit: true})
			} else {
				open = append(open, el.Tag)
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			idx := lastIndex(open, tag)
			if idx < 0 {
				err = h.Text(raw)
				break
			}
			for len(open)-1 > idx && err == nil {
				err = h.CloseElement(domain.EndTag{Tag: open[len(open)-1], Implicit: true})
				open = open[:len(open)-1]
			}
			if err == nil {
				err = h.CloseElement(domain.EndTag{Tag: tag, Raw: raw})
				open = open[:idx]
			}

		case html.CommentToken:
			if body, ok := commentBody(raw); ok {
				err = h.Comment(body)
			} else {
				err = h.Directive(raw)
			}

		case html.DoctypeToken:
			err = h.Directive(raw)
		}
		if err != nil {
			return err
		}

		if consumed == src.n {
			if err := h.Flush(); err != nil {
				return err
			}
		}
	}
}

// closeImplied closes the open elements that a start tag of tag ends
// without an end tag, such as a p before a div or an li before the next li.
func closeImplied(h ports.EventHandler, open []string, tag string) ([]string, error) {
	keep := impliedEnd(open, tag)
	for len(open) > keep {
		if err := h.CloseElement(domain.EndTag{Tag: open[len(open)-1], Implicit: true}); err != nil {
			return open, err
		}
		open = open[:len(open)-1]
	}
	return open, nil
}

func startElement(z *html.Tokenizer, raw []byte, selfClosing bool) domain.Element {
	name, hasAttr := z.TagName()
	el := domain.Element{Tag: string(name), Raw: raw, SelfClosing: selfClosing}
	for hasAttr {
		var k, v []byte
		k, v, hasAttr = z.TagAttr()
		el.Attrs = append(el.Attrs, domain.Attribute{Name: string(k), Value: string(v)})
	}
	return el
}

func lastIndex(stack []string, tag string) int {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == tag {
			return i
		}
	}
	return -1
}

// commentBody strips the comment delimiters. Malformed comments are
// reported as not ok so they can be passed on verbatim.
func commentBody(raw []byte) ([]byte, bool) {
	if !bytes.HasPrefix(raw, []byte("<!--")) || !bytes.HasSuffix(raw, []byte("-->")) || len(raw) < 7 {
		return nil, false
	}
	return raw[4 : len(raw)-3], true
}
