package compiler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/fold/pkg/domain"
)

// Record is the persisted form of a configuration: its canonical text plus
// bookkeeping.
type Record struct {
	Config  string    `json:"config"`
	SavedAt time.Time `json:"saved_at"`
}

// EncodeRecord marshals cfg for storage.
func EncodeRecord(cfg domain.CriticalLineConfig) ([]byte, error) {
	data, err := json.Marshal(Record{Config: cfg.String(), SavedAt: time.Now().UTC()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config record: %w", err)
	}
	return data, nil
}

// DecodeRecord parses a stored record back into a configuration.
func DecodeRecord(data []byte) (domain.CriticalLineConfig, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.CriticalLineConfig{}, fmt.Errorf("failed to unmarshal config record: %w", err)
	}
	cfg, err := Parse(rec.Config)
	if err != nil {
		return domain.CriticalLineConfig{}, fmt.Errorf("stored config is invalid: %w", err)
	}
	return cfg, nil
}
