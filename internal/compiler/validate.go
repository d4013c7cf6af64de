package compiler

import (
	"fmt"

	"github.com/aretw0/fold/pkg/domain"
)

// Validate checks a parsed configuration for region specs that could never
// form a proper nesting. Selector pairs that only overlap on some documents
// are caught by the splitter at runtime.
func Validate(cfg domain.CriticalLineConfig) error {
	for i, spec := range cfg.Regions {
		if spec.HasEnd() && spec.End.Equal(spec.Start) {
			return &domain.RegionOverlapError{
				First:  label(i, spec),
				Second: label(i, spec),
				Reason: "end selector equals start selector",
			}
		}
		for j := 0; j < i; j++ {
			if cfg.Regions[j].Start.Equal(spec.Start) {
				return &domain.RegionOverlapError{
					First:  label(j, cfg.Regions[j]),
					Second: label(i, spec),
					Reason: "identical start selectors",
				}
			}
		}
	}
	return nil
}

// Compile parses and validates text in one step.
func Compile(text string) (domain.CriticalLineConfig, error) {
	cfg, err := Parse(text)
	if err != nil {
		return domain.CriticalLineConfig{}, err
	}
	if err := Validate(cfg); err != nil {
		return domain.CriticalLineConfig{}, err
	}
	return cfg, nil
}

func label(i int, spec domain.RegionSpec) string {
	return fmt.Sprintf("region #%d (%s)", i, spec.String())
}
