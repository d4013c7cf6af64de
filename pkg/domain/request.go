package domain

import (
	"fmt"
	"strings"
)

// ServingMode selects what a response contains.
type ServingMode int

const (
	// ModeInline emits the main stream followed by the payload in one response.
	ModeInline ServingMode = iota
	// ModeSplitATF emits the main stream plus a pointer to the BTF request.
	ModeSplitATF
	// ModeSplitBTF emits only the payload.
	ModeSplitBTF
)

func (m ServingMode) String() string {
	switch m {
	case ModeSplitATF:
		return "atf"
	case ModeSplitBTF:
		return "btf"
	default:
		return "inline"
	}
}

// ParseServingMode accepts "inline", "atf" and "btf" (case-insensitive).
func ParseServingMode(s string) (ServingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "inline":
		return ModeInline, nil
	case "atf", "split-atf":
		return ModeSplitATF, nil
	case "btf", "split-btf":
		return ModeSplitBTF, nil
	}
	return ModeInline, fmt.Errorf("unknown serving mode %q", s)
}

// Request is the per-document snapshot supplied at construction time.
type Request struct {
	// URL is the request path (and query) of the document.
	URL string
	// ConfigText is raw critical-line text sent with the request. It takes
	// precedence over Config and any stored configuration.
	ConfigText *string
	// Config is an already parsed configuration. Nil means none supplied.
	Config *CriticalLineConfig
	Mode   ServingMode
	// FlushedEarly marks a response whose head was already sent.
	FlushedEarly bool
	// PassThrough disables splitting entirely.
	PassThrough bool
}
