// Package report renders split summaries and configurations for humans.
package report

import (
	"fmt"
	"strings"

	"github.com/aretw0/fold/pkg/domain"
)

// Summary formats a split summary as markdown.
func Summary(title string, s *domain.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if s == nil {
		b.WriteString("_No summary._\n")
		return b.String()
	}

	fmt.Fprintf(&b, "- **Mode:** %s\n", s.Mode)
	if s.PassThrough {
		b.WriteString("- **Pass-through:** page served unchanged\n")
		return b.String()
	}
	if s.Config != "" {
		fmt.Fprintf(&b, "- **Critical line:** `%s`\n", s.Config)
	} else {
		b.WriteString("- **Critical line:** _none_\n")
	}
	fmt.Fprintf(&b, "- **Payload:** %d bytes\n", s.PayloadBytes)
	fmt.Fprintf(&b, "- **High-res images:** %d\n\n", s.HighResImages)

	if len(s.Regions) == 0 {
		b.WriteString("No region matched.\n")
		return b.String()
	}
	b.WriteString("| Region | Parent | Entry | Selector | Bytes |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, r := range s.Regions {
		parent := r.ParentID
		if parent == "" {
			parent = "-"
		}
		fmt.Fprintf(&b, "| %s | %s | %d | `%s` | %d |\n", r.ID, parent, r.SpecIndex, escapeCell(r.Spec), r.Bytes)
	}
	return b.String()
}

// Config formats a parsed configuration as markdown.
func Config(cfg domain.CriticalLineConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Critical line\n\n`%s`\n\n", cfg.String())
	if cfg.Len() == 0 {
		b.WriteString("No regions configured.\n")
		return b.String()
	}
	b.WriteString("| # | Start | End |\n|---|---|---|\n")
	for i, r := range cfg.Regions {
		end := "-"
		if r.HasEnd() {
			end = "`" + escapeCell(r.End.String()) + "`"
		}
		fmt.Fprintf(&b, "| %d | `%s` | %s |\n", i, escapeCell(r.Start.String()), end)
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
