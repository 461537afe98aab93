package model

import "time"

// Phase is the coarse stage of a collection run. It only moves forward:
// Search -> Details -> Done.
type Phase string

const (
	PhaseSearch  Phase = "search"
	PhaseDetails Phase = "details"
	PhaseDone    Phase = "done"
)

// Center is a fixed geographic origin for radius-bounded searches.
type Center struct {
	Name   string  `yaml:"name" mapstructure:"name"`
	Lat    float64 `yaml:"lat" mapstructure:"lat"`
	Lng    float64 `yaml:"lng" mapstructure:"lng"`
	Region string  `yaml:"region" mapstructure:"region"`
}

// CollectionState is the persisted progress cursor for the single active
// run. Exactly one exists at a time; both stages mutate it and the
// orchestrator persists it before any continuation is scheduled.
type CollectionState struct {
	RunID        string    `json:"run_id" db:"run_id"`
	Phase        Phase     `json:"phase" db:"phase"`
	CenterIndex  int       `json:"center_index" db:"center_index"`
	KeywordIndex int       `json:"keyword_index" db:"keyword_index"`
	PageToken    string    `json:"page_token,omitempty" db:"page_token"`
	Processed    int       `json:"processed" db:"processed"`
	LastRunAt    time.Time `json:"last_run_at" db:"last_run_at"`
}

// AdvanceKeyword moves the cursor to the next keyword, clearing any
// pagination token owned by the finished one.
func (s *CollectionState) AdvanceKeyword() {
	s.KeywordIndex++
	s.PageToken = ""
}

// AdvanceCenter moves the cursor to the next center and rewinds the
// keyword cursor.
func (s *CollectionState) AdvanceCenter() {
	s.CenterIndex++
	s.KeywordIndex = 0
	s.PageToken = ""
}
