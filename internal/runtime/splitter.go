package runtime

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/fold/internal/logging"
	"github.com/aretw0/fold/pkg/domain"
)

// State is the lifecycle state of a Splitter.
type State int

const (
	StateIdle State = iota
	StateMain
	StateRegion
	StateDone
)

func (s State) String() string {
	switch s {
	case StateMain:
		return "main"
	case StateRegion:
		return "region"
	case StateDone:
		return "done"
	default:
		return "idle"
	}
}

// Options configures a Splitter.
type Options struct {
	Extent    domain.RegionExtent
	IndexMode domain.IndexMode
	ScriptURL string
	Hooks     domain.LifecycleHooks
	Logger    *slog.Logger
}

// pendingRun holds non-rendering siblings (and the whitespace and comments
// around them) until the next rendering sibling decides where they belong.
type pendingRun struct {
	active bool
	// depth is the path length of the parent whose children are held.
	depth int
	// open counts elements opened inside the run and not yet closed.
	open int
	buf  bytes.Buffer
}

func (p *pendingRun) reset() {
	p.active = false
	p.open = 0
	p.buf.Reset()
}

// Splitter consumes the event stream of one document and diverts the
// configured regions out of the main stream.
// It is not safe for concurrent use.
type Splitter struct {
	req     domain.Request
	cfg     *domain.CriticalLineConfig
	opts    Options
	logger  *slog.Logger
	asm     *Assembler
	path    *ElementPath
	regions regionSet
	pend    pendingRun
	state   State
	err     error

	// preHead holds main-stream bytes of a flushed-early response until
	// the head (or body) start tag shows they were already sent.
	preHead  bool
	held     bytes.Buffer
	headSeen bool
	highRes  int
	summary  *domain.Summary
}

// NewSplitter creates a splitter for one document writing to w.
// req.Config is the resolved configuration; nil splits nothing.
func NewSplitter(w io.Writer, req domain.Request, opts Options) *Splitter {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	cfg := req.Config
	if cfg == nil {
		cfg = &domain.CriticalLineConfig{}
	}
	return &Splitter{
		req:     req,
		cfg:     cfg,
		opts:    opts,
		logger:  logger,
		asm:     NewAssembler(w, req.Mode, opts.ScriptURL),
		path:    NewElementPath(opts.IndexMode),
		regions: newRegionSet(len(cfg.Regions)),
		preHead: req.FlushedEarly,
	}
}

// State returns the current lifecycle state.
func (s *Splitter) State() State { return s.state }

// Summary describes the finished document. It is nil before EndOfStream.
func (s *Splitter) Summary() *domain.Summary { return s.summary }

func (s *Splitter) check(event string) error {
	if s.err != nil {
		return s.err
	}
	if s.state == StateDone {
		return &domain.ProtocolError{Event: event, Reason: "event after end of stream", Err: domain.ErrDocumentClosed}
	}
	return nil
}

func (s *Splitter) fail(err error) error {
	s.err = err
	s.logger.Warn("split aborted", "url", s.req.URL, "err", err)
	return err
}

func (s *Splitter) syncState() {
	if s.regions.top() != nil {
		s.state = StateRegion
	} else {
		s.state = StateMain
	}
}

// emit writes to the innermost open region, or to the main stream.
func (s *Splitter) emit(p []byte) {
	if r := s.regions.top(); r != nil {
		r.buf.Write(p)
		return
	}
	if s.preHead {
		s.held.Write(p)
		return
	}
	s.asm.Write(p)
}

func (s *Splitter) emitString(str string) {
	if r := s.regions.top(); r != nil {
		r.buf.WriteString(str)
		return
	}
	if s.preHead {
		s.held.WriteString(str)
		return
	}
	s.asm.WriteString(str)
}

// endPreHead drops the bytes held before a flushed-early head.
func (s *Splitter) endPreHead() {
	s.preHead = false
	s.held.Reset()
}

func (s *Splitter) commitPending() {
	if !s.pend.active {
		return
	}
	s.emit(s.pend.buf.Bytes())
	s.pend.reset()
}

// OpenElement handles a start tag.
func (s *Splitter) OpenElement(el domain.Element) error {
	if err := s.check("open " + el.Tag); err != nil {
		return err
	}
	if s.state == StateIdle {
		s.state = StateMain
	}

	if s.pend.active && s.pend.open > 0 {
		s.path.Push(el)
		s.pend.open++
		writeOriginalStartTag(&s.pend.buf, el)
		return nil
	}
	if domain.IsNonRendering(el.Tag) {
		if !s.pend.active {
			s.pend.active = true
			s.pend.depth = s.path.Len()
		}
		s.path.Push(el)
		s.pend.open++
		writeOriginalStartTag(&s.pend.buf, el)
		return nil
	}

	s.path.Push(el)
	depth := s.path.Len()

	s.closeEndedRegions(depth)
	s.commitPending()

	if el.Tag == "body" && !s.headSeen && s.regions.top() == nil {
		s.endPreHead()
		s.emitString("<head>")
		s.asm.WriteInit()
		s.emitString("</head>")
		s.headSeen = true
	}

	s.openMatchingRegions(depth, el)
	s.writeStart(el, depth)

	if el.Tag == "head" {
		s.headSeen = true
		s.endPreHead()
	}
	s.syncState()
	return nil
}

func (s *Splitter) writeStart(el domain.Element, depth int) {
	var buf bytes.Buffer
	r := s.regions.top()
	switch {
	case r != nil && r.level == depth:
		writeStartTag(&buf, withAttr(el, domain.RegionAttr, r.id))
	case r == nil:
		if rewritten, ok := prefixOnload(el); ok {
			s.highRes++
			writeStartTag(&buf, rewritten)
		} else {
			writeOriginalStartTag(&buf, el)
		}
	default:
		writeOriginalStartTag(&buf, el)
	}
	s.emit(buf.Bytes())
}

// closeEndedRegions closes open regions whose end selector matches the
// element just pushed at depth. When an outer run ends while runs nested in
// it are still open, those close first, innermost outward.
func (s *Splitter) closeEndedRegions(depth int) {
	target := s.regions.endedAt(depth, s.path.Matches)
	if target == nil {
		return
	}
	for target.open {
		s.closeRegion()
	}
}

func (s *Splitter) openMatchingRegions(depth int, el domain.Element) {
	for i, spec := range s.cfg.Regions {
		if s.regions.used[i] || !s.path.Matches(spec.Start) {
			continue
		}
		parent := s.regions.top()
		r := s.regions.open(i, spec, depth, el.Tag, s.opts.Extent)
		if parent == nil {
			// Root regions leave an empty placeholder pair in the main stream.
			markers := beginMarker(r.id) + endMarker(r.id)
			if s.preHead {
				s.held.WriteString(markers)
			} else {
				s.asm.WriteString(markers)
			}
		}
		s.logger.Debug("region opened", "region", r.id, "spec", spec.String(), "tag", el.Tag, "depth", depth)
		if s.opts.Hooks.OnRegionOpen != nil {
			s.opts.Hooks.OnRegionOpen(&domain.RegionEvent{
				Timestamp: time.Now(),
				RegionID:  r.id,
				ParentID:  s.regions.parentID(r),
				SpecIndex: i,
				Tag:       el.Tag,
			})
		}
	}
}

// closeRegion closes the innermost region. Nested regions are inlined in
// their parent between their own markers.
func (s *Splitter) closeRegion() {
	r := s.regions.pop()
	if r == nil {
		return
	}
	if r.parent >= 0 {
		parent := s.regions.all[r.parent]
		parent.buf.WriteString(beginMarker(r.id))
		parent.buf.Write(r.buf.Bytes())
		parent.buf.WriteString(endMarker(r.id))
	}
	s.logger.Debug("region closed", "region", r.id, "bytes", r.buf.Len())
	if s.opts.Hooks.OnRegionClose != nil {
		s.opts.Hooks.OnRegionClose(&domain.RegionEvent{
			Timestamp: time.Now(),
			RegionID:  r.id,
			ParentID:  s.regions.parentID(r),
			SpecIndex: r.spec,
			Tag:       r.tag,
			Bytes:     r.buf.Len(),
		})
	}
	s.syncState()
}

// CloseElement handles an end tag.
func (s *Splitter) CloseElement(et domain.EndTag) error {
	if err := s.check("close " + et.Tag); err != nil {
		return err
	}
	if s.path.Len() == 0 {
		return s.fail(&domain.ProtocolError{Event: "close " + et.Tag, Reason: "no open element"})
	}
	if top := s.path.Top(); top != et.Tag {
		return s.fail(&domain.ProtocolError{Event: "close " + et.Tag, Reason: fmt.Sprintf("innermost open element is %q", top)})
	}

	if s.pend.active && s.pend.open > 0 {
		s.pend.open--
		writeEndTag(&s.pend.buf, et)
		s.path.Pop()
		return nil
	}

	depth := s.path.Len()
	s.commitPending()
	for r := s.regions.top(); r != nil && r.level > depth; r = s.regions.top() {
		s.closeRegion()
	}

	if et.Tag == "head" && s.regions.top() == nil && !s.preHead {
		s.asm.WriteInit()
	}

	var buf bytes.Buffer
	writeEndTag(&buf, et)
	s.emit(buf.Bytes())

	for r := s.regions.top(); r != nil && r.level == depth && !r.runs; r = s.regions.top() {
		s.closeRegion()
	}
	s.path.Pop()
	s.syncState()
	return nil
}

// Text handles character data, written verbatim.
func (s *Splitter) Text(data []byte) error {
	if err := s.check("text"); err != nil {
		return err
	}
	if s.state == StateIdle {
		s.state = StateMain
	}
	if s.pend.active {
		if s.pend.open > 0 || isWhitespace(data) {
			s.pend.buf.Write(data)
			return nil
		}
		s.commitPending()
	}
	s.emit(data)
	return nil
}

// Comment handles a comment; data is the text between the delimiters.
func (s *Splitter) Comment(data []byte) error {
	if err := s.check("comment"); err != nil {
		return err
	}
	if s.state == StateIdle {
		s.state = StateMain
	}
	if s.pend.active {
		writeComment(&s.pend.buf, data)
		return nil
	}
	var buf bytes.Buffer
	writeComment(&buf, data)
	s.emit(buf.Bytes())
	return nil
}

// Directive handles a doctype or other markup declaration, written verbatim.
func (s *Splitter) Directive(data []byte) error {
	if err := s.check("directive"); err != nil {
		return err
	}
	if s.state == StateIdle {
		s.state = StateMain
	}
	if s.pend.active && s.pend.open > 0 {
		s.pend.buf.Write(data)
		return nil
	}
	s.commitPending()
	s.emit(data)
	return nil
}

// Flush hands buffered main-stream bytes to the output. Open regions and
// held siblings are left untouched, so output does not depend on where
// flushes happen.
func (s *Splitter) Flush() error {
	if err := s.check("flush"); err != nil {
		return err
	}
	if err := s.asm.Flush(); err != nil {
		return s.fail(err)
	}
	return nil
}

// EndOfStream closes remaining regions and writes the assembled tail.
func (s *Splitter) EndOfStream() error {
	if err := s.check("end of stream"); err != nil {
		return err
	}
	if n := s.path.Len(); n != 0 {
		return s.fail(&domain.ProtocolError{Event: "end of stream", Reason: fmt.Sprintf("%d elements still open, innermost %q", n, s.path.Top())})
	}
	s.commitPending()
	for s.regions.top() != nil {
		s.closeRegion()
	}
	if s.preHead {
		// No head or body: nothing was sent early.
		s.preHead = false
		s.asm.Write(s.held.Bytes())
	}

	roots := s.regions.roots()
	payload := serialize(roots)
	suffix := Suffix{
		HighResImages: s.highRes,
		FlushedEarly:  s.req.FlushedEarly,
		Config:        s.cfg.String(),
	}
	if len(s.regions.all) > 0 {
		suffix.BTFURL = BTFURL(s.req.URL)
	}
	if err := s.asm.Finish(payload, suffix); err != nil {
		return s.fail(err)
	}
	s.state = StateDone
	s.summary = s.buildSummary(len(payload))

	if s.opts.Hooks.OnDocumentDone != nil {
		s.opts.Hooks.OnDocumentDone(&domain.DocumentEvent{
			Timestamp: time.Now(),
			URL:       s.req.URL,
			Mode:      s.req.Mode.String(),
			Summary:   s.summary,
		})
	}
	s.logger.Debug("document split", "url", s.req.URL, "mode", s.req.Mode.String(),
		"regions", len(s.regions.all), "payload_bytes", len(payload))
	return nil
}

func (s *Splitter) buildSummary(payloadBytes int) *domain.Summary {
	sum := &domain.Summary{
		Mode:          s.req.Mode.String(),
		Config:        s.cfg.String(),
		Regions:       make([]domain.RegionSummary, 0, len(s.regions.all)),
		PayloadBytes:  payloadBytes,
		HighResImages: s.highRes,
	}
	for _, r := range s.regions.all {
		sum.Regions = append(sum.Regions, domain.RegionSummary{
			ID:        r.id,
			ParentID:  s.regions.parentID(r),
			SpecIndex: r.spec,
			Spec:      s.cfg.Regions[r.spec].String(),
			Bytes:     r.buf.Len(),
		})
	}
	return sum
}
