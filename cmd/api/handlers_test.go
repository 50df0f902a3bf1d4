package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sales-intent-go/internal/cache"
	"sales-intent-go/internal/extractor"
	"sales-intent-go/internal/logger"
	"sales-intent-go/internal/pipeline"
	"sales-intent-go/internal/processor"
	"sales-intent-go/internal/scoring"
	"sales-intent-go/internal/terminology"
	"sales-intent-go/internal/transcription"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	m.Run()
}

func newTestServer(t *testing.T) (*httptest.Server, *terminology.Store) {
	t.Helper()
	rules, err := scoring.NewRuleScorer(scoring.DefaultProfile())
	require.NoError(t, err)
	store := terminology.NewStore(nil, terminology.DefaultRules())
	remote := extractor.NewScorer(extractor.MockCompleter{}, extractor.Options{MaxAttempts: 1})
	pipe := pipeline.New(store, rules, remote, pipeline.Options{Weights: scoring.DefaultWeights(), Concurrency: 2})
	proc := processor.New(pipe, transcription.NewClient("", true), cache.NewLRU[string, processor.Analysis](10))

	ts := httptest.NewServer((&server{proc: proc, store: store}).routes())
	t.Cleanup(ts.Close)
	return ts, store
}

func post(t *testing.T, ts *httptest.Server, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(b))
}

func TestScoreAndLookup(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, out := post(t, ts, "/score", `{"file_id":"a.wav","subject":"王老板","text":"嗯 我想买 水费机"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "a.wav", out["id"])
	assert.Equal(t, "我想买 水肥机", out["transcript"])
	result := out["result"].(map[string]any)
	assert.EqualValues(t, 61, result["final_score"])
	assert.NotNil(t, out["action_card"])

	get, err := http.Get(ts.URL + "/analysis/a.wav")
	require.NoError(t, err)
	get.Body.Close()
	assert.Equal(t, http.StatusOK, get.StatusCode)

	missing, err := http.Get(ts.URL + "/analysis/nope")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	stats, err := http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	defer stats.Body.Close()
	var st struct {
		Cache struct {
			Hits int `json:"hits"`
			Size int `json:"size"`
		} `json:"cache"`
		RulesVersion uint64 `json:"rules_version"`
	}
	require.NoError(t, json.NewDecoder(stats.Body).Decode(&st))
	assert.Equal(t, 1, st.Cache.Hits)
	assert.Equal(t, 1, st.Cache.Size)
	assert.EqualValues(t, 1, st.RulesVersion)

	resp, _ = post(t, ts, "/score", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCalls(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, out := post(t, ts, "/calls", `{
		"file_id": "c1",
		"turns": [{"start":0,"end":5,"speaker":"A"},{"start":5,"end":9,"speaker":"B"}],
		"segments": [{"start":1,"end":2,"text":"你好"},{"start":6,"end":7,"text":"多少钱"}]
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "A：你好 B：多少钱", out["transcript"])
	assert.Len(t, out["blocks"], 2)

	resp, out = post(t, ts, "/calls", `{"file_id":"c2","audio_url":"https://example.com/c2.wav"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, out["blocks"], 3)

	resp, _ = post(t, ts, "/calls", `{"file_id":"c3","turns":[],"segments":[]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestBatch(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, out := post(t, ts, "/batch", `{"乙":"不用了","甲":"我想买，加你微信"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	results := out["results"].([]any)
	require.Len(t, results, 2)
	assert.Equal(t, "乙", results[0].(map[string]any)["subject"])
	insight := out["insight"].(map[string]any)
	assert.EqualValues(t, 2, insight["total"])

	resp, _ = post(t, ts, "/batch", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	recent, err := http.Get(ts.URL + "/analysis?limit=1")
	require.NoError(t, err)
	defer recent.Body.Close()
	var list []map[string]any
	require.NoError(t, json.NewDecoder(recent.Body).Decode(&list))
	assert.Len(t, list, 1)
}

func TestTerminologyRoutes(t *testing.T) {
	ts, store := newTestServer(t)
	base := store.Snapshot().Len()

	resp, out := post(t, ts, "/terminology/add", `{"wrong_term":"滴管","correct_term":"滴灌"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, out["version"])

	resp, _ = post(t, ts, "/terminology/add", `{"wrong_term":"  ","correct_term":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = post(t, ts, "/terminology/edit", `{"old_wrong_term":"滴管","wrong_term":"滴關","correct_term":"滴灌"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	c, ok := store.Snapshot().Lookup("滴關")
	assert.True(t, ok)
	assert.Equal(t, "滴灌", c)

	resp, _ = post(t, ts, "/terminology/delete", `{"wrong_term":"滴關"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = post(t, ts, "/terminology/delete", `{"wrong_term":"滴關"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, out = post(t, ts, "/terminology/batch_add", `{"text":"喷管 -> 喷灌\nno arrow here\n水费机 -> 水肥机"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, out["added"])
	assert.Equal(t, []any{"no arrow here"}, out["skipped"])

	resp, out = post(t, ts, "/terminology/import", `{"微喷":"微喷灌","喷管":"喷灌"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, out["added"])
	assert.Equal(t, base+2, store.Snapshot().Len())

	resp, out = post(t, ts, "/terminology/test", `{"text":"嗯 水费机"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "水肥机", out["corrected"])
	assert.Equal(t, true, out["changed"])

	resp, out = post(t, ts, "/terminology/test", `{"text":"  水肥机  很好 "}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "水肥机 很好", out["corrected"])
	assert.Equal(t, false, out["changed"])

	get, err := http.Get(ts.URL + "/terminology")
	require.NoError(t, err)
	defer get.Body.Close()
	var rules rulesResponse
	require.NoError(t, json.NewDecoder(get.Body).Decode(&rules))
	assert.Equal(t, base+2, rules.Stats.TotalRules)
	assert.Len(t, rules.Rules, base+2)

	export, err := http.Get(ts.URL + "/terminology/export")
	require.NoError(t, err)
	defer export.Body.Close()
	exported, err := terminology.ReadDocument(export.Body)
	require.NoError(t, err)
	assert.Equal(t, store.Snapshot().Rules(), exported)
}
