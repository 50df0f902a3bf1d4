package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"sales-intent-go/internal/logger"
	"sales-intent-go/internal/types"
)

// Transcript is the engine's combined diarization and ASR output for one
// recording.
type Transcript struct {
	Turns    []types.DiarizationTurn   `json:"turns"`
	Segments []types.TranscriptSegment `json:"segments"`
}

type PublishResponse struct {
	Code   int    `json:"Code"`
	Status string `json:"Status"`
	Data   struct {
		MediaId          string `json:"MediaId"`
		Status           string `json:"Status"`
		TranscriptionURL string `json:"TranscriptionURL"`
	} `json:"Data"`
	Reason string `json:"Reason,omitempty"`
}

type StatusResponse struct {
	Code   int    `json:"Code"`
	Status string `json:"Status"`
	Data   struct {
		Status           string `json:"Status"` // Success, Queued, Processing, Failed
		TranscriptionURL string `json:"TranscriptionURL"`
	} `json:"Data"`
	Reason string `json:"Reason,omitempty"`
}

// Client talks to the upstream engine service: publish a recording,
// poll the job, download the turns and segments.
type Client struct {
	host         string
	mock         bool
	http         *http.Client
	pollInterval time.Duration
	maxPolls     int
	retryFor     time.Duration
	log          *logrus.Entry
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption { return func(c *Client) { c.http = hc } }

// WithPolling sets the interval between status checks and how many to make.
func WithPolling(interval time.Duration, max int) ClientOption {
	return func(c *Client) {
		c.pollInterval = interval
		c.maxPolls = max
	}
}

// WithRetryWindow bounds the retries of a single request.
func WithRetryWindow(d time.Duration) ClientOption { return func(c *Client) { c.retryFor = d } }

func NewClient(host string, mock bool, opts ...ClientOption) *Client {
	c := &Client{
		host:         strings.TrimRight(host, "/"),
		mock:         mock,
		http:         &http.Client{Timeout: 12 * time.Second},
		pollInterval: 1500 * time.Millisecond,
		maxPolls:     40,
		retryFor:     12 * time.Second,
		log:          logger.Component("transcription"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Fetch returns the engine output for the recording at audioURL.
func (c *Client) Fetch(ctx context.Context, audioURL string) (*Transcript, error) {
	if c.mock {
		return mockTranscript(), nil
	}
	if c.host == "" {
		return nil, errors.New("TRANSCRIBE_URL not set")
	}
	log := c.log.WithField("audio_url", audioURL)
	log.Info("starting transcription")

	mediaID, readyURL, err := c.publish(ctx, audioURL)
	if err != nil {
		log.WithError(err).Error("transcribe publish failed")
		return nil, err
	}
	if readyURL == "" {
		readyURL, err = c.poll(ctx, mediaID, log)
		if err != nil {
			return nil, err
		}
	}
	log.WithField("result_url", readyURL).Info("transcription completed, downloading")
	return c.download(ctx, readyURL)
}

func (c *Client) publish(ctx context.Context, audioURL string) (mediaID, readyURL string, err error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	w.WriteField("audioUrl", audioURL)
	w.WriteField("diarize", "true")
	if err := w.Close(); err != nil {
		return "", "", err
	}
	body, contentType := b.Bytes(), w.FormDataContentType()

	var resp PublishResponse
	err = c.doJSON(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/transcribe", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	}, &resp)
	if err != nil {
		return "", "", err
	}
	if resp.Code != http.StatusOK {
		return "", "", fmt.Errorf("transcribe publish error: code=%d reason=%s", resp.Code, resp.Reason)
	}
	if resp.Data.TranscriptionURL != "" && strings.EqualFold(resp.Data.Status, "success") {
		return "", resp.Data.TranscriptionURL, nil
	}
	if resp.Data.MediaId == "" {
		return "", "", errors.New("transcribe publish returned no media id")
	}
	return resp.Data.MediaId, "", nil
}

func (c *Client) poll(ctx context.Context, mediaID string, log *logrus.Entry) (string, error) {
	u, err := url.Parse(c.host + "/getstatus")
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("mediaId", mediaID)
	u.RawQuery = q.Encode()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for i := 0; i < c.maxPolls; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		var s StatusResponse
		err := c.doJSON(ctx, func() (*http.Request, error) {
			return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		}, &s)
		if err != nil {
			log.WithError(err).Warn("polling failed")
			continue
		}
		log.WithFields(logrus.Fields{"media_id": mediaID, "status": s.Data.Status}).Debug("polling transcription")

		switch s.Data.Status {
		case "Success":
			return s.Data.TranscriptionURL, nil
		case "Failed":
			return "", fmt.Errorf("transcription failed: %s", s.Reason)
		}
	}
	return "", fmt.Errorf("transcription timeout after %d polls", c.maxPolls)
}

func (c *Client) download(ctx context.Context, resultURL string) (*Transcript, error) {
	var t Transcript
	err := c.doJSON(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
	}, &t)
	if err != nil {
		return nil, fmt.Errorf("download transcript: %w", err)
	}
	return &t, nil
}

// doJSON retries server errors and transport failures with exponential
// backoff; client errors and bad bodies are permanent.
func (c *Client) doJSON(ctx context.Context, newReq func() (*http.Request, error), target any) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.retryFor

	op := func() error {
		req, err := newReq()
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
		}
		if resp.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("request failed %d: %s", resp.StatusCode, string(body)))
		}
		if len(body) == 0 {
			return fmt.Errorf("empty body")
		}
		if err := json.Unmarshal(body, target); err != nil {
			return backoff.Permanent(fmt.Errorf("json decode error: %v body=%s", err, string(body)))
		}
		return nil
	}
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

func mockTranscript() *Transcript {
	return &Transcript{
		Turns: []types.DiarizationTurn{
			{Start: 0, End: 6, SpeakerID: "SPEAKER_00"},
			{Start: 6, End: 14, SpeakerID: "SPEAKER_01"},
			{Start: 14, End: 20, SpeakerID: "SPEAKER_00"},
		},
		Segments: []types.TranscriptSegment{
			{Start: 0.2, End: 2.8, Text: "老板您好，我们是做水肥一体化设备的"},
			{Start: 3.0, End: 5.6, Text: "想了解一下您家地里的灌溉情况"},
			{Start: 6.3, End: 10.2, Text: "我家有两百亩玉米，一直想装滴灌"},
			{Start: 10.5, End: 13.8, Text: "你们这个多少钱，可以加个微信吗"},
			{Start: 14.4, End: 19.0, Text: "可以的，我把报价单发给您"},
		},
	}
}
