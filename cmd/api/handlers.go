package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"
	"sales-intent-go/internal/logger"
	"sales-intent-go/internal/processor"
	"sales-intent-go/internal/terminology"
	"sales-intent-go/internal/transcription"
	"sales-intent-go/internal/types"
)

const maxBodyBytes = 4 << 20

type server struct {
	proc  *processor.Processor
	store *terminology.Store
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		logger.New().WithRequest(r).Debug("health check")
		fmt.Fprint(w, "ok")
	})

	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("POST /score", s.handleScore)
	mux.HandleFunc("POST /calls", s.handleCall)
	mux.HandleFunc("POST /batch", s.handleBatch)
	mux.HandleFunc("GET /analysis", s.handleRecent)
	mux.HandleFunc("GET /analysis/{id}", s.handleAnalysis)

	mux.HandleFunc("GET /terminology", s.handleRules)
	mux.HandleFunc("GET /terminology/export", s.handleExport)
	mux.HandleFunc("POST /terminology/add", s.handleAddRule)
	mux.HandleFunc("POST /terminology/delete", s.handleDeleteRule)
	mux.HandleFunc("POST /terminology/edit", s.handleEditRule)
	mux.HandleFunc("POST /terminology/import", s.handleImport)
	mux.HandleFunc("POST /terminology/batch_add", s.handleBatchAdd)
	mux.HandleFunc("POST /terminology/test", s.handleTestRules)
	return mux
}

func requestLog(r *http.Request, handler string) *logrus.Entry {
	return logger.New().WithRequest(r).WithField("handler", handler)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, log *logrus.Entry, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.WithError(err).Error("failed to write response")
	}
}

func writeError(w http.ResponseWriter, log *logrus.Entry, status int, err error) {
	log.WithError(err).WithField("status", status).Warn("request failed")
	writeJSON(w, log, status, map[string]string{"error": err.Error()})
}

type scoreRequest struct {
	FileID  string `json:"file_id"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

func (s *server) handleScore(w http.ResponseWriter, r *http.Request) {
	log := requestLog(r, "score")
	var req scoreRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, log, http.StatusBadRequest, err)
		return
	}
	a := s.proc.ProcessText(r.Context(), req.FileID, req.Subject, req.Text)
	log.WithField("id", a.ID).WithField("final_score", a.Result.FinalScore).Info("scored")
	writeJSON(w, log, http.StatusOK, a)
}

type callRequest struct {
	types.CallInput
	AudioURL string `json:"audio_url"`
}

func (s *server) handleCall(w http.ResponseWriter, r *http.Request) {
	log := requestLog(r, "calls")
	var req callRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, log, http.StatusBadRequest, err)
		return
	}
	a, err := s.proc.ProcessCall(r.Context(), req.CallInput, req.AudioURL)
	switch {
	case errors.Is(err, transcription.ErrEmptyAlignment):
		writeError(w, log, http.StatusUnprocessableEntity, err)
		return
	case err != nil:
		writeError(w, log, http.StatusBadGateway, err)
		return
	}
	log.WithField("id", a.ID).WithField("final_score", a.Result.FinalScore).Info("call scored")
	writeJSON(w, log, http.StatusOK, a)
}

// handleBatch takes {subject: transcript}; results follow subject order.
func (s *server) handleBatch(w http.ResponseWriter, r *http.Request) {
	log := requestLog(r, "batch")
	var req map[string]string
	if err := decode(w, r, &req); err != nil {
		writeError(w, log, http.StatusBadRequest, err)
		return
	}
	if len(req) == 0 {
		writeError(w, log, http.StatusBadRequest, errors.New("no transcripts given"))
		return
	}
	subjects := make([]string, 0, len(req))
	for subject := range req {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)
	records := make([]types.CallRecord, len(subjects))
	for i, subject := range subjects {
		records[i] = types.CallRecord{Customer: subject, Transcript: req[subject]}
	}
	writeJSON(w, log, http.StatusOK, s.proc.ProcessBatch(r.Context(), records))
}

func (s *server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	log := requestLog(r, "analysis")
	id := r.PathValue("id")
	a, ok := s.proc.Get(id)
	if !ok {
		writeError(w, log, http.StatusNotFound, fmt.Errorf("no analysis for %q", id))
		return
	}
	writeJSON(w, log, http.StatusOK, a)
}

func (s *server) handleRecent(w http.ResponseWriter, r *http.Request) {
	log := requestLog(r, "recent")
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, log, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}
	writeJSON(w, log, http.StatusOK, s.proc.Recent(limit))
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	writeJSON(w, requestLog(r, "stats"), http.StatusOK, map[string]any{
		"cache":         s.proc.CacheStats(),
		"rules":         snap.Stats(),
		"rules_version": snap.Version,
	})
}

type rulesResponse struct {
	Version uint64             `json:"version"`
	Stats   terminology.Stats  `json:"stats"`
	Rules   []terminology.Rule `json:"rules"`
}

func (s *server) handleRules(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	writeJSON(w, requestLog(r, "rules"), http.StatusOK, rulesResponse{
		Version: snap.Version,
		Stats:   snap.Stats(),
		Rules:   snap.Rules(),
	})
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	log := requestLog(r, "export")
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="terminology_dictionary.json"`)
	if err := terminology.WriteDocument(w, s.store.Snapshot().Rules()); err != nil {
		log.WithError(err).Error("export failed")
	}
}

type versionResponse struct {
	Version uint64 `json:"version"`
}

func (s *server) handleAddRule(w http.ResponseWriter, r *http.Request) {
	log := requestLog(r, "rules.add")
	var req terminology.Rule
	if err := decode(w, r, &req); err != nil {
		writeError(w, log, http.StatusBadRequest, err)
		return
	}
	v, err := s.store.Upsert(r.Context(), req.Wrong, req.Correct)
	if err != nil {
		writeError(w, log, ruleStatus(err), err)
		return
	}
	writeJSON(w, log, http.StatusOK, versionResponse{Version: v})
}

func (s *server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	log := requestLog(r, "rules.delete")
	var req terminology.Rule
	if err := decode(w, r, &req); err != nil {
		writeError(w, log, http.StatusBadRequest, err)
		return
	}
	v, ok, err := s.store.Delete(r.Context(), req.Wrong)
	if err == nil && !ok {
		err = fmt.Errorf("%w: %q", terminology.ErrRuleNotFound, req.Wrong)
	}
	if err != nil {
		writeError(w, log, ruleStatus(err), err)
		return
	}
	writeJSON(w, log, http.StatusOK, versionResponse{Version: v})
}

type editRequest struct {
	OldWrong string `json:"old_wrong_term"`
	terminology.Rule
}

func (s *server) handleEditRule(w http.ResponseWriter, r *http.Request) {
	log := requestLog(r, "rules.edit")
	var req editRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, log, http.StatusBadRequest, err)
		return
	}
	v, err := s.store.Edit(r.Context(), req.OldWrong, req.Wrong, req.Correct)
	if err != nil {
		writeError(w, log, ruleStatus(err), err)
		return
	}
	writeJSON(w, log, http.StatusOK, versionResponse{Version: v})
}

type importResponse struct {
	Added   int      `json:"added"`
	Skipped []string `json:"skipped,omitempty"`
	Version uint64   `json:"version"`
}

// handleImport accepts the exported document format.
func (s *server) handleImport(w http.ResponseWriter, r *http.Request) {
	log := requestLog(r, "rules.import")
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	rules, err := terminology.ReadDocument(r.Body)
	if err != nil {
		writeError(w, log, http.StatusBadRequest, err)
		return
	}
	added, v, err := s.store.Import(r.Context(), rules)
	if err != nil {
		writeError(w, log, ruleStatus(err), err)
		return
	}
	writeJSON(w, log, http.StatusOK, importResponse{Added: added, Version: v})
}

// handleBatchAdd takes {"text": "wrong -> correct\n..."}.
func (s *server) handleBatchAdd(w http.ResponseWriter, r *http.Request) {
	log := requestLog(r, "rules.batch_add")
	var req struct {
		Text string `json:"text"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, log, http.StatusBadRequest, err)
		return
	}
	rules, skipped := terminology.ParseBatch(req.Text)
	added, v, err := s.store.Import(r.Context(), rules)
	if err != nil {
		writeError(w, log, ruleStatus(err), err)
		return
	}
	writeJSON(w, log, http.StatusOK, importResponse{Added: added, Skipped: skipped, Version: v})
}

type testResponse struct {
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
	Changed   bool   `json:"changed"`
}

func (s *server) handleTestRules(w http.ResponseWriter, r *http.Request) {
	log := requestLog(r, "rules.test")
	var req struct {
		Text string `json:"text"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, log, http.StatusBadRequest, err)
		return
	}
	out := s.store.Normalize(req.Text)
	writeJSON(w, log, http.StatusOK, testResponse{Original: req.Text, Corrected: out, Changed: terminology.Changed(req.Text, out)})
}

func ruleStatus(err error) int {
	switch {
	case errors.Is(err, terminology.ErrEmptyTerm):
		return http.StatusBadRequest
	case errors.Is(err, terminology.ErrRuleNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
