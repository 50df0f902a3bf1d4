// Package processor is the caller side of the scoring pipeline: it runs
// calls through it, attaches follow-up advice and keeps results for lookup.
package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"sales-intent-go/internal/actionable"
	"sales-intent-go/internal/aggregator"
	"sales-intent-go/internal/cache"
	"sales-intent-go/internal/extractor"
	"sales-intent-go/internal/logger"
	"sales-intent-go/internal/pipeline"
	"sales-intent-go/internal/transcription"
	"sales-intent-go/internal/types"
)

// Analysis is returned by the scoring endpoints and kept in the cache.
type Analysis struct {
	types.AnalysisRecord
	ActionCard actionable.ActionCard `json:"action_card"`
}

type BatchReport struct {
	Results    []Analysis            `json:"results"`
	Insight    aggregator.Insight    `json:"insight"`
	ActionCard actionable.ActionCard `json:"action_card"`
	DurationMs int64                 `json:"duration_ms"`
}

// Fetcher retrieves engine output for a recording; *transcription.Client
// satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, audioURL string) (*transcription.Transcript, error)
}

type Processor struct {
	pipe    *pipeline.Pipeline
	fetch   Fetcher
	results *cache.LRU[string, Analysis]
	log     *logrus.Entry
}

func New(pipe *pipeline.Pipeline, fetch Fetcher, results *cache.LRU[string, Analysis]) *Processor {
	return &Processor{pipe: pipe, fetch: fetch, results: results, log: logger.Component("processor")}
}

// ProcessText scores a ready transcript. It never fails.
func (p *Processor) ProcessText(ctx context.Context, fileID, subject, text string) Analysis {
	start := time.Now()
	res := p.pipe.Score(ctx, text, subject)
	res.FileID = fileID
	return p.finish(res, start)
}

// ProcessCall scores a call given as diarization turns and ASR segments.
// When both are empty and an audio URL is set, the engine output is fetched
// first.
func (p *Processor) ProcessCall(ctx context.Context, in types.CallInput, audioURL string) (Analysis, error) {
	start := time.Now()
	log := p.log.WithField("file_id", in.FileID)

	if len(in.Segments) == 0 && audioURL != "" {
		if p.fetch == nil {
			return Analysis{}, fmt.Errorf("no transcription client configured")
		}
		tr, err := p.fetch.Fetch(ctx, audioURL)
		if err != nil {
			log.WithError(err).Error("transcription failed")
			return Analysis{}, fmt.Errorf("transcription error: %w", err)
		}
		in.Turns, in.Segments = tr.Turns, tr.Segments
	}

	res, err := p.pipe.ProcessCall(ctx, in)
	if err != nil {
		log.WithError(err).Warn("call could not be aligned")
		return Analysis{}, err
	}
	return p.finish(res, start), nil
}

// ProcessBatch scores every record and summarizes the batch.
func (p *Processor) ProcessBatch(ctx context.Context, records []types.CallRecord) BatchReport {
	start := time.Now()
	results := p.pipe.Batch(ctx, records)

	report := BatchReport{Results: make([]Analysis, len(results))}
	plain := make([]types.AnalysisRecord, len(results))
	for i, res := range results {
		report.Results[i] = p.finish(res, start)
		plain[i] = report.Results[i].AnalysisRecord
	}
	report.Insight = aggregator.Aggregate(plain)
	report.ActionCard = actionable.Generate(report.Insight)
	report.DurationMs = time.Since(start).Milliseconds()

	p.log.WithFields(logrus.Fields{
		"calls":       report.Insight.Total,
		"mean_score":  report.Insight.MeanScore,
		"degraded":    report.Insight.Degraded,
		"duration_ms": report.DurationMs,
	}).Info("batch processed")
	return report
}

func (p *Processor) Get(id string) (Analysis, bool) {
	return p.results.Get(id)
}

func (p *Processor) CacheStats() cache.Stats {
	return p.results.Stats()
}

// Recent lists up to n cached analyses, most recently used first.
func (p *Processor) Recent(n int) []Analysis {
	return p.results.Recent(n)
}

func (p *Processor) finish(res pipeline.Result, start time.Time) Analysis {
	id := res.FileID
	if id == "" {
		id = uuid.New().String()
	}
	rec := types.AnalysisRecord{
		ID:            id,
		FileID:        res.FileID,
		Subject:       res.Subject,
		RawTranscript: res.RawText,
		Transcript:    res.NormalizedText,
		Blocks:        res.Blocks,
		Result:        res.Combined,
		Level:         types.LevelFor(res.Combined.FinalScore),
		Status:        actionable.DetectStatus(res.NormalizedText),
		Degraded:      extractor.IsDegraded(res.Combined.Detail.Remote),
		CreatedAt:     time.Now().UTC(),
		DurationMs:    time.Since(start).Milliseconds(),
	}
	a := Analysis{AnalysisRecord: rec, ActionCard: actionable.ForCall(rec)}
	p.results.Save(id, a)
	return a
}
