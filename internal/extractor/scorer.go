// Package extractor scores purchase intent with a remote language model.
// The remote service is unreliable: replies are recovered from whatever
// shape the model produced, validated, retried, and finally degraded to a
// zero score rather than failing the caller.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"sales-intent-go/internal/logger"
	"sales-intent-go/internal/types"
)

type Options struct {
	// Timeout bounds each attempt separately.
	Timeout            time.Duration
	MaxAttempts        int
	BackoffInitial     time.Duration
	MaxTranscriptChars int
	// Concurrency bounds BatchScore.
	Concurrency int
}

func DefaultOptions() Options {
	return Options{
		Timeout:            30 * time.Second,
		MaxAttempts:        3,
		BackoffInitial:     500 * time.Millisecond,
		MaxTranscriptChars: 100000,
		Concurrency:        4,
	}
}

// Scorer is safe for concurrent use; retry state lives in each call.
type Scorer struct {
	llm  Completer
	opts Options
	log  *logrus.Entry
}

func NewScorer(llm Completer, opts Options) *Scorer {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.BackoffInitial <= 0 {
		opts.BackoffInitial = def.BackoffInitial
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = def.Concurrency
	}
	return &Scorer{llm: llm, opts: opts, log: logger.Component("extractor")}
}

const degradedPrefix = "remote evaluation failed: "

// Degraded is the result reported when remote scoring could not succeed.
func Degraded(cause error) types.RemoteScoreResult {
	return types.RemoteScoreResult{Score: 0, Reason: degradedPrefix + cause.Error()}
}

func IsDegraded(r types.RemoteScoreResult) bool {
	return r.Score == 0 && strings.HasPrefix(r.Reason, degradedPrefix)
}

// ScoreIntent always returns a well-formed result. The error is non-nil only
// for empty text or subject (ErrInvalidInput), in which case no request is
// made and the result is degraded.
func (s *Scorer) ScoreIntent(ctx context.Context, text, subject string) (types.RemoteScoreResult, error) {
	log := s.log.WithField("subject", subject)

	if strings.TrimSpace(text) == "" {
		err := fmt.Errorf("%w: transcript is empty", ErrInvalidInput)
		return Degraded(err), err
	}
	if strings.TrimSpace(subject) == "" {
		err := fmt.Errorf("%w: subject name is empty", ErrInvalidInput)
		return Degraded(err), err
	}
	if n := utf8.RuneCountInString(text); s.opts.MaxTranscriptChars > 0 && n > s.opts.MaxTranscriptChars {
		log.WithField("chars", n).Warn("transcript is very long, consider splitting it")
	}

	prompt := BuildPrompt(text, subject)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.opts.BackoffInitial
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(s.opts.MaxAttempts-1)), ctx)

	var (
		result  types.RemoteScoreResult
		attempt int
		lastErr error
	)
	op := func() error {
		attempt++
		r, err := s.attempt(ctx, prompt)
		if err != nil {
			lastErr = err
			log.WithFields(logrus.Fields{"attempt": attempt, "error": err.Error()}).Warn("remote scoring attempt failed")
			var se *StatusError
			if errors.As(err, &se) && !se.Retryable() {
				return backoff.Permanent(err)
			}
			return err
		}
		result = r
		return nil
	}

	if err := backoff.Retry(op, policy); err != nil {
		cause := err
		if lastErr != nil && !errors.Is(err, lastErr) {
			cause = fmt.Errorf("%v (last attempt: %v)", err, lastErr)
		}
		log.WithFields(logrus.Fields{"attempts": attempt, "error": cause.Error()}).Error("remote scoring degraded")
		return Degraded(cause), nil
	}

	log.WithFields(logrus.Fields{"score": result.Score, "attempts": attempt}).Info("remote scoring succeeded")
	return result, nil
}

func (s *Scorer) attempt(ctx context.Context, prompt string) (types.RemoteScoreResult, error) {
	actx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	reply, err := s.llm.Complete(actx, SystemPrompt, prompt)
	if err != nil {
		return types.RemoteScoreResult{}, err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return types.RemoteScoreResult{}, fmt.Errorf("%w: empty reply", ErrTransient)
	}

	v, via, err := recoverResult(reply)
	if err != nil {
		return types.RemoteScoreResult{}, err
	}
	score, reason, err := validate(v)
	if err != nil {
		return types.RemoteScoreResult{}, err
	}
	s.log.WithField("strategy", via).Debug("reply recovered")
	return types.RemoteScoreResult{Score: score, Reason: reason}, nil
}

// BatchScore scores each subject independently. Failures, including invalid
// input, show up as degraded results for that subject only.
func (s *Scorer) BatchScore(ctx context.Context, transcripts map[string]string) map[string]types.RemoteScoreResult {
	out := make(map[string]types.RemoteScoreResult, len(transcripts))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for subject, text := range transcripts {
		g.Go(func() error {
			r, _ := s.ScoreIntent(ctx, text, subject)
			mu.Lock()
			out[subject] = r
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return out
}
