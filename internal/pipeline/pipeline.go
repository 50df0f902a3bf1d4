// Package pipeline runs one transcript through normalization, rule and
// remote scoring, and the combiner.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"sales-intent-go/internal/extractor"
	"sales-intent-go/internal/logger"
	"sales-intent-go/internal/scoring"
	"sales-intent-go/internal/transcription"
	"sales-intent-go/internal/types"
)

// Normalizer rewrites transcript text; *terminology.Store satisfies it.
type Normalizer interface {
	Normalize(text string) string
}

// RemoteScorer is the language-model half of scoring; *extractor.Scorer
// satisfies it.
type RemoteScorer interface {
	ScoreIntent(ctx context.Context, text, subject string) (types.RemoteScoreResult, error)
}

type Options struct {
	Weights        scoring.Weights
	DefaultSubject string
	// Concurrency bounds Batch.
	Concurrency int
}

type Pipeline struct {
	norm   Normalizer
	rules  *scoring.RuleScorer
	remote RemoteScorer
	opts   Options
	log    *logrus.Entry
}

func New(norm Normalizer, rules *scoring.RuleScorer, remote RemoteScorer, opts Options) *Pipeline {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.DefaultSubject == "" {
		opts.DefaultSubject = "客户"
	}
	return &Pipeline{norm: norm, rules: rules, remote: remote, opts: opts, log: logger.Component("pipeline")}
}

// Result is one scored transcript.
type Result struct {
	FileID         string               `json:"file_id,omitempty"`
	Subject        string               `json:"subject"`
	RawText        string               `json:"raw_text"`
	NormalizedText string               `json:"normalized_text"`
	Blocks         []types.SpeakerBlock `json:"blocks,omitempty"`
	Combined       types.CombinedResult `json:"combined"`
}

// Score never fails. Remote failures, including an empty transcript, end up
// as a degraded remote result with the rule score still counted.
func (p *Pipeline) Score(ctx context.Context, text, subject string) Result {
	if strings.TrimSpace(subject) == "" {
		subject = p.opts.DefaultSubject
	}
	normalized := p.norm.Normalize(text)

	var (
		rule   types.RuleScoreResult
		remote types.RemoteScoreResult
	)
	var g errgroup.Group
	g.Go(func() error {
		rule = p.rules.Score(normalized)
		return nil
	})
	g.Go(func() error {
		r, err := p.remote.ScoreIntent(ctx, normalized, subject)
		if err != nil {
			p.log.WithError(err).WithField("subject", subject).Warn("remote scoring skipped")
		}
		remote = r
		return nil
	})
	g.Wait()

	combined := scoring.Combine(rule, remote, p.opts.Weights)
	p.log.WithFields(logrus.Fields{
		"subject":      subject,
		"final_score":  combined.FinalScore,
		"rule_score":   combined.RuleScore,
		"remote_score": combined.RemoteScore,
	}).Info("transcript scored")

	return Result{
		Subject:        subject,
		RawText:        text,
		NormalizedText: normalized,
		Combined:       combined,
	}
}

// ProcessCall aligns the engine streams into speaker blocks, renders them
// and scores the text. It fails only when alignment yields nothing.
func (p *Pipeline) ProcessCall(ctx context.Context, in types.CallInput) (Result, error) {
	blocks, err := transcription.Align(in.Turns, in.Segments)
	if err != nil {
		return Result{FileID: in.FileID}, fmt.Errorf("align call %s: %w", in.FileID, err)
	}
	res := p.Score(ctx, transcription.Render(blocks), in.Subject)
	res.FileID = in.FileID
	res.Blocks = blocks
	return res, nil
}

// Batch scores records concurrently. Results keep the input order.
func (p *Pipeline) Batch(ctx context.Context, records []types.CallRecord) []Result {
	out := make([]Result, len(records))
	var g errgroup.Group
	g.SetLimit(p.opts.Concurrency)
	for i, rec := range records {
		g.Go(func() error {
			res := p.Score(ctx, rec.Transcript, rec.Customer)
			res.FileID = rec.FileID
			out[i] = res
			return nil
		})
	}
	g.Wait()
	return out
}

var _ RemoteScorer = (*extractor.Scorer)(nil)
