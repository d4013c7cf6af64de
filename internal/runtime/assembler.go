package runtime

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aretw0/fold/pkg/domain"
)

const (
	// ConfigHeader carries critical-line text on split requests.
	ConfigHeader = "X-PSA-Split-Config"
	// BTFQueryParam selects the below-the-fold half of a split response.
	BTFQueryParam = "X-PSA-Split-Btf"
	// DefaultScriptURL is where the client panel loader is served from.
	DefaultScriptURL = "/fold/static/panel_loader.js"
)

const initScript = `<script type="text/javascript" pagespeed_no_defer="">` +
	`window.pagespeed=window.pagespeed||{};pagespeed.numHighResImagesLoaded=0;` +
	`pagespeed.splitOnload=function(){pagespeed.numHighResImagesLoaded++;};` +
	`</script>`

// %d high-res image count, %s script URL, %s payload, %s flushed-early flag.
const inlineSuffixFormat = `<script type="text/javascript" pagespeed_no_defer="">` +
	`pagespeed.numHighResImages=%d;</script>` +
	`<script type="text/javascript" src="%s"></script>` +
	`<script type="text/javascript">pagespeed.panelLoaderInit();` +
	`pagespeed.panelLoader.bufferNonCriticalData(%s, %s);</script>`

// %d high-res image count, %s BTF request descriptor, %s script URL.
const twoChunkSuffixFormat = `<script type="text/javascript" pagespeed_no_defer="">` +
	`pagespeed.numHighResImages=%d;pagespeed.splitBtf=%s;</script>` +
	`<script type="text/javascript" src="%s"></script>` +
	`<script type="text/javascript">pagespeed.panelLoaderInit();` +
	`pagespeed.panelLoader.loadBelowTheFold(pagespeed.splitBtf);</script>`

// btfRequest tells the client how to fetch the second half of a split response.
type btfRequest struct {
	Header string `json:"header"`
	Config string `json:"config"`
	URL    string `json:"url"`
}

// Suffix carries what the closing boilerplate needs.
type Suffix struct {
	HighResImages int
	FlushedEarly  bool
	Config        string
	// BTFURL is empty when no region matched.
	BTFURL string
}

// Assembler owns the output writer. Main-stream bytes are buffered until
// Flush or Finish; the payload and boilerplate are written by Finish.
type Assembler struct {
	w         io.Writer
	mode      domain.ServingMode
	scriptURL string
	buf       bytes.Buffer
	initDone  bool
	written   int64
}

// NewAssembler creates an assembler writing to w.
func NewAssembler(w io.Writer, mode domain.ServingMode, scriptURL string) *Assembler {
	if scriptURL == "" {
		scriptURL = DefaultScriptURL
	}
	return &Assembler{w: w, mode: mode, scriptURL: scriptURL}
}

// Write appends main-stream bytes. The BTF half carries no main stream.
func (a *Assembler) Write(p []byte) {
	if a.mode == domain.ModeSplitBTF {
		return
	}
	a.buf.Write(p)
}

// WriteString is Write for strings.
func (a *Assembler) WriteString(s string) {
	if a.mode == domain.ModeSplitBTF {
		return
	}
	a.buf.WriteString(s)
}

// WriteInit appends the init boilerplate once.
func (a *Assembler) WriteInit() {
	if a.initDone {
		return
	}
	a.initDone = true
	a.WriteString(initScript)
}

// InitWritten reports whether the init boilerplate has been emitted.
func (a *Assembler) InitWritten() bool { return a.initDone }

// Written returns the number of bytes handed to the writer so far.
func (a *Assembler) Written() int64 { return a.written }

// Flush hands buffered main-stream bytes to the writer, then flushes the
// writer itself when it supports it.
func (a *Assembler) Flush() error {
	if err := a.drain(); err != nil {
		return err
	}
	switch f := a.w.(type) {
	case interface{ Flush() error }:
		return f.Flush()
	case interface{ Flush() }:
		f.Flush()
	}
	return nil
}

func (a *Assembler) drain() error {
	if a.buf.Len() == 0 {
		return nil
	}
	n, err := a.w.Write(a.buf.Bytes())
	a.written += int64(n)
	a.buf.Reset()
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// Finish writes the remaining main stream, the boilerplate for the mode and
// the payload.
func (a *Assembler) Finish(payload []byte, s Suffix) error {
	switch a.mode {
	case domain.ModeSplitBTF:
		a.buf.Write(payload)
	case domain.ModeSplitATF:
		a.WriteInit()
		a.buf.WriteString(TwoChunkSuffix(s.HighResImages, s.Config, s.BTFURL, a.scriptURL))
	default:
		a.WriteInit()
		a.buf.WriteString(InlineSuffix(s.HighResImages, a.scriptURL, payload, s.FlushedEarly))
	}
	return a.Flush()
}

// InitBoilerplate returns the script injected before the end of the head.
func InitBoilerplate() string { return initScript }

// InlineSuffix returns the tail of an inline response carrying payload.
func InlineSuffix(highRes int, scriptURL string, payload []byte, flushedEarly bool) string {
	return fmt.Sprintf(inlineSuffixFormat, highRes, scriptURL, payload, boolString(flushedEarly))
}

// TwoChunkSuffix returns the tail of an above-the-fold response, telling the
// client which header, configuration and URL fetch the rest.
func TwoChunkSuffix(highRes int, config, btfURL, scriptURL string) string {
	desc := scriptSafeJSON(btfRequest{Header: ConfigHeader, Config: config, URL: btfURL})
	return fmt.Sprintf(twoChunkSuffixFormat, highRes, desc, scriptURL)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// BTFURL builds the relative URL of the below-the-fold request for a
// document URL, keeping its path and query.
func BTFURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	q := u.RawQuery
	if q != "" && !strings.HasSuffix(q, "&") {
		q += "&"
	}
	return path + "?" + q + BTFQueryParam + "=1"
}
