package extractor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "deepseek-chat", req.Model)
		assert.InDelta(t, 0.1, req.Temperature, 1e-9)
		assert.False(t, req.Stream)
		if assert.Len(t, req.Messages, 2) {
			assert.Equal(t, "system", req.Messages[0].Role)
			assert.Equal(t, SystemPrompt, req.Messages[0].Content)
			assert.Equal(t, "user", req.Messages[1].Role)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  {\"score\": 66, \"reason\": \"ok\"}\n"}}]}`))
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, "sk-test", "deepseek-chat", 0.1)
	out, err := c.Complete(context.Background(), SystemPrompt, "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"score": 66, "reason": "ok"}`, out)
}

func TestChatClient_Errors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := NewChatClient(srv.URL, "k", "m", 0).Complete(context.Background(), "s", "p")
		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusTooManyRequests, se.Code)
		assert.True(t, se.Retryable())
		assert.ErrorIs(t, err, ErrTransient)
	})

	t.Run("no choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		_, err := NewChatClient(srv.URL, "k", "m", 0).Complete(context.Background(), "s", "p")
		assert.ErrorIs(t, err, ErrTransient)
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := srv.URL
		srv.Close()

		_, err := NewChatClient(url, "k", "m", 0).Complete(context.Background(), "s", "p")
		assert.ErrorIs(t, err, ErrTransient)
	})
}

func TestScorerOverHTTP_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"评分结果：{\"score\": 77, \"reason\": \"有明确时间计划\"}"}}]}`))
	}))
	defer srv.Close()

	s := NewScorer(NewChatClient(srv.URL, "k", "deepseek-chat", 0.1), fastOptions())
	res, err := s.ScoreIntent(context.Background(), "打算下个月装", "客户")
	require.NoError(t, err)
	assert.Equal(t, 77, res.Score)
	assert.Equal(t, "有明确时间计划", res.Reason)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestStatusError_Retryable(t *testing.T) {
	assert.True(t, (&StatusError{Code: 500}).Retryable())
	assert.True(t, (&StatusError{Code: 408}).Retryable())
	assert.False(t, (&StatusError{Code: 400}).Retryable())
	assert.False(t, (&StatusError{Code: 403}).Retryable())
}
