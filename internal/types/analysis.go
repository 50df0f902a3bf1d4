package types

import "time"

// CustomerStatus is the follow-up state inferred from call wording.
type CustomerStatus string

const (
	StatusInterested    CustomerStatus = "interested"
	StatusKeepInTouch   CustomerStatus = "keep_in_touch"
	StatusNotInterested CustomerStatus = "not_interested"
)

// AnalysisRecord is one scored call as kept in the result cache.
type AnalysisRecord struct {
	ID            string         `json:"id"`
	FileID        string         `json:"file_id,omitempty"`
	Subject       string         `json:"subject"`
	RawTranscript string         `json:"raw_transcript"`
	Transcript    string         `json:"transcript"`
	Blocks        []SpeakerBlock `json:"blocks,omitempty"`
	Result        CombinedResult `json:"result"`
	Level         IntentLevel    `json:"level"`
	Status        CustomerStatus `json:"status"`
	Degraded      bool           `json:"degraded"`
	CreatedAt     time.Time      `json:"created_at"`
	DurationMs    int64          `json:"duration_ms"`
}
