// Package transcription turns the diarization and ASR engine outputs into
// speaker-attributed text, and fetches those outputs from the upstream
// engine service.
package transcription

import (
	"errors"
	"strings"

	"sales-intent-go/internal/types"
)

// UnknownSpeaker labels segments that no diarization turn covers.
const UnknownSpeaker = "SPEAKER"

var ErrEmptyAlignment = errors.New("alignment produced no speaker blocks")

// Align assigns each segment to the first turn overlapping either of its
// endpoints, in the order turns are given, then merges runs of consecutive
// segments with the same speaker. Segments with blank text are dropped.
// A later turn with a larger overlap does not win.
func Align(turns []types.DiarizationTurn, segments []types.TranscriptSegment) ([]types.SpeakerBlock, error) {
	var blocks []types.SpeakerBlock
	var run []string
	flush := func(speaker string) {
		if len(run) > 0 {
			blocks = append(blocks, types.SpeakerBlock{SpeakerID: speaker, Text: strings.Join(run, " ")})
			run = run[:0]
		}
	}

	current := ""
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		speaker := speakerFor(turns, seg)
		if len(run) > 0 && speaker != current {
			flush(current)
		}
		current = speaker
		run = append(run, text)
	}
	flush(current)

	if len(blocks) == 0 {
		return nil, ErrEmptyAlignment
	}
	return blocks, nil
}

func speakerFor(turns []types.DiarizationTurn, seg types.TranscriptSegment) string {
	for _, t := range turns {
		if (t.Start <= seg.Start && seg.Start <= t.End) || (t.Start <= seg.End && seg.End <= t.End) {
			return t.SpeakerID
		}
	}
	return UnknownSpeaker
}

// Render formats blocks as "speaker：text" paragraphs separated by blank
// lines, the transcript shape the scorers consume.
func Render(blocks []types.SpeakerBlock) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = b.SpeakerID + "：" + b.Text
	}
	return strings.Join(parts, "\n\n")
}
