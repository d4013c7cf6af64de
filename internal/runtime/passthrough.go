package runtime

import (
	"bytes"
	"fmt"
	"io"

	"github.com/aretw0/fold/pkg/domain"
)

// PassThrough re-emits every event unchanged. It serves requests that must
// not be split.
type PassThrough struct {
	w    io.Writer
	buf  bytes.Buffer
	mode domain.ServingMode
	done bool
}

// NewPassThrough creates a handler copying events to w.
func NewPassThrough(w io.Writer, mode domain.ServingMode) *PassThrough {
	return &PassThrough{w: w, mode: mode}
}

func (p *PassThrough) check(event string) error {
	if p.done {
		return &domain.ProtocolError{Event: event, Reason: "event after end of stream", Err: domain.ErrDocumentClosed}
	}
	return nil
}

func (p *PassThrough) OpenElement(el domain.Element) error {
	if err := p.check("open " + el.Tag); err != nil {
		return err
	}
	writeOriginalStartTag(&p.buf, el)
	return nil
}

func (p *PassThrough) CloseElement(et domain.EndTag) error {
	if err := p.check("close " + et.Tag); err != nil {
		return err
	}
	writeEndTag(&p.buf, et)
	return nil
}

func (p *PassThrough) Text(data []byte) error {
	if err := p.check("text"); err != nil {
		return err
	}
	p.buf.Write(data)
	return nil
}

func (p *PassThrough) Comment(data []byte) error {
	if err := p.check("comment"); err != nil {
		return err
	}
	writeComment(&p.buf, data)
	return nil
}

func (p *PassThrough) Directive(data []byte) error {
	if err := p.check("directive"); err != nil {
		return err
	}
	p.buf.Write(data)
	return nil
}

func (p *PassThrough) Flush() error {
	if err := p.check("flush"); err != nil {
		return err
	}
	if p.buf.Len() == 0 {
		return nil
	}
	_, err := p.w.Write(p.buf.Bytes())
	p.buf.Reset()
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func (p *PassThrough) EndOfStream() error {
	if err := p.check("end of stream"); err != nil {
		return err
	}
	err := p.Flush()
	p.done = true
	return err
}

// Summary reports a pass-through document.
func (p *PassThrough) Summary() *domain.Summary {
	if !p.done {
		return nil
	}
	return &domain.Summary{Mode: p.mode.String(), PassThrough: true, Regions: []domain.RegionSummary{}}
}
