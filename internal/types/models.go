package types

// DiarizationTurn is one speaker interval from the diarization engine.
type DiarizationTurn struct {
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	SpeakerID string  `json:"speaker"`
}

// TranscriptSegment is one recognized text interval from the ASR engine.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type SpeakerBlock struct {
	SpeakerID string `json:"speaker"`
	Text      string `json:"text"`
}

// CallRecord is one row of a batch-scoring sheet.
type CallRecord struct {
	FileID     string `json:"file_id"`
	Customer   string `json:"customer,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}

// CallInput is what the pipeline needs to score a recorded call.
type CallInput struct {
	FileID   string              `json:"file_id,omitempty"`
	Subject  string              `json:"subject,omitempty"`
	Turns    []DiarizationTurn   `json:"turns"`
	Segments []TranscriptSegment `json:"segments"`
}
