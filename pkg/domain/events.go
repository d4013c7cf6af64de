package domain

import "time"

// RegionEvent describes a region opening or closing.
type RegionEvent struct {
	Timestamp time.Time `json:"timestamp"`
	RegionID  string    `json:"region_id"`
	ParentID  string    `json:"parent_id,omitempty"`
	SpecIndex int       `json:"spec_index"`
	Tag       string    `json:"tag"`
	// Bytes is the size of the region markup, set on close.
	Bytes int `json:"bytes,omitempty"`
}

// DocumentEvent is emitted once per document at end of stream.
type DocumentEvent struct {
	Timestamp time.Time `json:"timestamp"`
	URL       string    `json:"url,omitempty"`
	Mode      string    `json:"mode"`
	Summary   *Summary  `json:"summary"`
}

// LifecycleHooks defines callbacks for splitter observability.
type LifecycleHooks struct {
	OnRegionOpen   func(*RegionEvent)
	OnRegionClose  func(*RegionEvent)
	OnDocumentDone func(*DocumentEvent)
}

// RegionSummary is the post-pass view of one region.
type RegionSummary struct {
	ID        string `json:"id"`
	ParentID  string `json:"parent_id,omitempty"`
	SpecIndex int    `json:"spec_index"`
	Spec      string `json:"spec"`
	Bytes     int    `json:"bytes"`
}

// Summary describes the result of splitting one document.
type Summary struct {
	Mode          string          `json:"mode"`
	PassThrough   bool            `json:"pass_through,omitempty"`
	Config        string          `json:"config"`
	Regions       []RegionSummary `json:"regions"`
	PayloadBytes  int             `json:"payload_bytes"`
	HighResImages int             `json:"high_res_images"`
}
