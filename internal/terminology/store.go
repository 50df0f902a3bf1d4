package terminology

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"sales-intent-go/internal/logger"
)

// Persister stores the whole ordered rule document. Load returns
// ErrNoDocument when nothing has been saved yet.
type Persister interface {
	Load(ctx context.Context) ([]Rule, error)
	Save(ctx context.Context, rules []Rule) error
}

// Snapshot is an immutable, versioned view of the rule set.
type Snapshot struct {
	Version uint64
	rules   []Rule
}

// Rules returns a copy of the ordered rules.
func (s *Snapshot) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

func (s *Snapshot) Len() int { return len(s.rules) }

func (s *Snapshot) Lookup(wrong string) (string, bool) {
	if i := indexOf(s.rules, wrong); i >= 0 {
		return s.rules[i].Correct, true
	}
	return "", false
}

func (s *Snapshot) Stats() Stats { return statsOf(s.rules) }

func (s *Snapshot) Normalize(text string) string { return Normalize(text, s.rules) }

// Store owns the mutable rule set. Writers are serialized with each other
// and with persistence; readers take a snapshot and never block.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
	persist Persister
	log     *logrus.Entry
}

// NewStore builds a store holding rules without touching the persister.
func NewStore(p Persister, rules []Rule) *Store {
	s := &Store{persist: p, log: logger.Component("terminology")}
	cp := make([]Rule, len(rules))
	copy(cp, rules)
	s.current.Store(&Snapshot{Version: 1, rules: cp})
	return s
}

// Open loads the rule document, seeding and saving DefaultRules when none
// exists yet.
func Open(ctx context.Context, p Persister) (*Store, error) {
	rules, err := p.Load(ctx)
	switch {
	case errors.Is(err, ErrNoDocument):
		rules = DefaultRules()
		if err := p.Save(ctx, rules); err != nil {
			return nil, fmt.Errorf("seed default dictionary: %w", err)
		}
		logger.Component("terminology").WithField("rules", len(rules)).Info("seeded default dictionary")
	case err != nil:
		return nil, fmt.Errorf("load dictionary: %w", err)
	default:
		logger.Component("terminology").WithField("rules", len(rules)).Info("loaded dictionary")
	}
	return NewStore(p, rules), nil
}

func (s *Store) Snapshot() *Snapshot { return s.current.Load() }

// Normalize rewrites text against the snapshot current at call start.
func (s *Store) Normalize(text string) string {
	return s.Snapshot().Normalize(text)
}

// commit persists next and, only if that succeeds, publishes it.
// Callers must hold s.mu.
func (s *Store) commit(ctx context.Context, next []Rule) (uint64, error) {
	if s.persist != nil {
		if err := s.persist.Save(ctx, next); err != nil {
			return s.Snapshot().Version, fmt.Errorf("persist dictionary: %w", err)
		}
	}
	v := s.Snapshot().Version + 1
	s.current.Store(&Snapshot{Version: v, rules: next})
	return v, nil
}

// Upsert adds a rule or replaces the correct term of an existing one.
func (s *Store) Upsert(ctx context.Context, wrong, correct string) (uint64, error) {
	wrong, correct = strings.TrimSpace(wrong), strings.TrimSpace(correct)
	if wrong == "" {
		return s.Snapshot().Version, ErrEmptyTerm
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next, _ := upsert(s.Snapshot().rules, wrong, correct)
	v, err := s.commit(ctx, next)
	if err != nil {
		return v, err
	}
	s.log.WithFields(logrus.Fields{"wrong": wrong, "correct": correct, "version": v}).Info("rule upserted")
	return v, nil
}

// Delete removes a rule. Deleting an absent rule is a no-op reported by
// the boolean.
func (s *Store) Delete(ctx context.Context, wrong string) (uint64, bool, error) {
	wrong = strings.TrimSpace(wrong)
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := remove(s.Snapshot().rules, wrong)
	if !ok {
		return s.Snapshot().Version, false, nil
	}
	v, err := s.commit(ctx, next)
	if err != nil {
		return v, false, err
	}
	s.log.WithFields(logrus.Fields{"wrong": wrong, "version": v}).Info("rule deleted")
	return v, true, nil
}

// Edit renames and rewrites a rule, keeping its position in the order.
func (s *Store) Edit(ctx context.Context, oldWrong, newWrong, newCorrect string) (uint64, error) {
	oldWrong = strings.TrimSpace(oldWrong)
	newWrong, newCorrect = strings.TrimSpace(newWrong), strings.TrimSpace(newCorrect)
	if newWrong == "" {
		return s.Snapshot().Version, ErrEmptyTerm
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := rename(s.Snapshot().rules, oldWrong, newWrong, newCorrect)
	v, err := s.commit(ctx, next)
	if err != nil {
		return v, err
	}
	s.log.WithFields(logrus.Fields{"old": oldWrong, "wrong": newWrong, "correct": newCorrect, "version": v}).Info("rule edited")
	return v, nil
}

// Import merges rules by key in the given order: existing keys are
// overwritten in place, new keys are appended. added counts only new keys.
func (s *Store) Import(ctx context.Context, rules []Rule) (added int, version uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.Snapshot().rules
	for _, r := range rules {
		w := strings.TrimSpace(r.Wrong)
		if w == "" {
			continue
		}
		var isNew bool
		next, isNew = upsert(next, w, strings.TrimSpace(r.Correct))
		if isNew {
			added++
		}
	}
	version, err = s.commit(ctx, next)
	if err != nil {
		return 0, version, err
	}
	s.log.WithFields(logrus.Fields{"added": added, "total": len(next), "version": version}).Info("rules imported")
	return added, version, nil
}

// Reload re-reads the persisted document and publishes it when it differs
// from the current rules. It holds the write lock across the load, so a
// document read here can never be older than one a writer already committed.
func (s *Store) Reload(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.Snapshot()
	if s.persist == nil {
		return cur.Version, nil
	}
	rules, err := s.persist.Load(ctx)
	if err != nil {
		return cur.Version, err
	}
	if equalRules(cur.rules, rules) {
		return cur.Version, nil
	}
	v := cur.Version + 1
	s.current.Store(&Snapshot{Version: v, rules: rules})
	s.log.WithFields(logrus.Fields{"rules": len(rules), "version": v}).Info("dictionary reloaded")
	return v, nil
}
