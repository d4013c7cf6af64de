package compiler

import (
	"strings"

	"github.com/aretw0/fold/pkg/domain"
)

// Parse converts critical-line text into a configuration.
//
// The grammar is a comma separated list of "start[:end]" entries. Selectors
// are "/" separated steps, each a tag name followed by optional [N] and
// [@attr="value"] predicates. Whitespace between tokens is ignored, names are
// lower-cased, and empty entries are skipped.
func Parse(text string) (domain.CriticalLineConfig, error) {
	p := &parser{src: text}
	var cfg domain.CriticalLineConfig
	for {
		p.skipSpace()
		if p.eof() {
			break
		}
		if p.peek() == ',' {
			p.pos++
			continue
		}
		spec, err := p.region()
		if err != nil {
			return domain.CriticalLineConfig{}, err
		}
		cfg.Regions = append(cfg.Regions, spec)

		p.skipSpace()
		if p.eof() {
			break
		}
		if p.peek() != ',' {
			return domain.CriticalLineConfig{}, p.errorf("expected ',' after region")
		}
		p.pos++
	}
	return cfg, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) errorf(reason string) error {
	return &domain.ConfigParseError{Input: p.src, Pos: p.pos, Reason: reason}
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		return p.errorf("expected '" + string(c) + "'")
	}
	p.pos++
	return nil
}

func (p *parser) region() (domain.RegionSpec, error) {
	start, err := p.selector()
	if err != nil {
		return domain.RegionSpec{}, err
	}
	spec := domain.RegionSpec{Start: start}

	p.skipSpace()
	if p.peek() != ':' {
		return spec, nil
	}
	p.pos++
	end, err := p.selector()
	if err != nil {
		return domain.RegionSpec{}, err
	}
	spec.End = &end

	p.skipSpace()
	if p.peek() == ':' {
		return domain.RegionSpec{}, p.errorf("region has more than one end selector")
	}
	return spec, nil
}

func (p *parser) selector() (domain.Selector, error) {
	var steps []domain.Step
	for {
		st, err := p.step()
		if err != nil {
			return domain.Selector{}, err
		}
		steps = append(steps, st)

		p.skipSpace()
		if p.peek() != '/' {
			break
		}
		p.pos++
	}
	return domain.NewSelector(steps...), nil
}

func (p *parser) step() (domain.Step, error) {
	p.skipSpace()
	name := p.ident()
	if name == "" {
		return domain.Step{}, p.errorf("expected tag name")
	}
	st := domain.Step{Tag: strings.ToLower(name)}

	for {
		p.skipSpace()
		if p.peek() != '[' {
			return st, nil
		}
		p.pos++
		p.skipSpace()

		if p.peek() == '@' {
			if st.HasAttr() {
				return domain.Step{}, p.errorf("step has more than one attribute predicate")
			}
			p.pos++
			attr := p.ident()
			if attr == "" {
				return domain.Step{}, p.errorf("expected attribute name")
			}
			if err := p.expect('='); err != nil {
				return domain.Step{}, err
			}
			p.skipSpace()
			value, err := p.quoted()
			if err != nil {
				return domain.Step{}, err
			}
			st.Attr = strings.ToLower(attr)
			st.Value = value
		} else {
			if st.Index > 0 {
				return domain.Step{}, p.errorf("step has more than one index predicate")
			}
			n, ok := p.number()
			if !ok {
				return domain.Step{}, p.errorf("expected index or @attribute")
			}
			if n < 1 {
				return domain.Step{}, p.errorf("index must be at least 1")
			}
			st.Index = n
		}

		if err := p.expect(']'); err != nil {
			return domain.Step{}, err
		}
	}
}

func (p *parser) ident() string {
	start := p.pos
	for !p.eof() {
		c := p.src[p.pos]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_' {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *parser) number() (int, bool) {
	start := p.pos
	n := 0
	for !p.eof() && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		n = n*10 + int(p.src[p.pos]-'0')
		if n > 1<<20 {
			return 0, false
		}
		p.pos++
	}
	return n, p.pos > start
}

func (p *parser) quoted() (string, error) {
	q := p.peek()
	if q != '"' && q != '\'' {
		return "", p.errorf("expected quoted attribute value")
	}
	open := p.pos
	p.pos++
	end := strings.IndexByte(p.src[p.pos:], q)
	if end < 0 {
		p.pos = open
		return "", p.errorf("unterminated quoted value")
	}
	value := p.src[p.pos : p.pos+end]
	p.pos += end + 1
	return value, nil
}
