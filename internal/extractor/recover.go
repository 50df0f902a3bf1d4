package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	fencedRe  = regexp.MustCompile("(?is)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	bracedRe  = regexp.MustCompile(`\{[^{}]*"score"[^{}]*\}`)
	salvageRe = regexp.MustCompile(`(?i)(?:score|分数|评分).*?([0-9０-９]+)`)
)

var errNoMatch = errors.New("no match")

// strategy turns a model reply into a decoded value or explains why not.
type strategy struct {
	name string
	try  func(reply string) (any, error)
}

// recoveryChain is tried in order; the first success wins.
var recoveryChain = []strategy{
	{"whole reply", decodeWhole},
	{"fenced block", decodeFenced},
	{"score object", decodeBraced},
	{"free text", salvageScore},
}

// recoverResult extracts the structured score object from reply.
func recoverResult(reply string) (any, string, error) {
	failures := make([]string, 0, len(recoveryChain))
	for _, s := range recoveryChain {
		v, err := s.try(reply)
		if err == nil {
			return v, s.name, nil
		}
		failures = append(failures, s.name+": "+err.Error())
	}
	return nil, "", &ExtractionError{Failures: failures}
}

func decode(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON value")
	}
	if _, ok := v.(map[string]any); !ok {
		return nil, fmt.Errorf("not a JSON object: %T", v)
	}
	return v, nil
}

func decodeWhole(reply string) (any, error) {
	return decode(reply)
}

func decodeFenced(reply string) (any, error) {
	m := fencedRe.FindStringSubmatch(reply)
	if m == nil {
		return nil, errNoMatch
	}
	return decode(m[1])
}

func decodeBraced(reply string) (any, error) {
	m := bracedRe.FindString(reply)
	if m == "" {
		return nil, errNoMatch
	}
	return decode(m)
}

func salvageScore(reply string) (any, error) {
	m := salvageRe.FindStringSubmatch(reply)
	if m == nil {
		return nil, errNoMatch
	}
	digits := strings.Map(asciiDigit, m[1])
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 || n > 100 {
		return nil, fmt.Errorf("number %s out of range", m[1])
	}
	return map[string]any{
		"score":  json.Number(digits),
		"reason": "score salvaged from free-text reply: " + truncate(reply, 200),
	}, nil
}

// asciiDigit folds full-width digits, common in Chinese replies.
func asciiDigit(r rune) rune {
	if r >= '０' && r <= '９' {
		return '0' + (r - '０')
	}
	return r
}

const missingReason = "no reason provided"

// validate checks the decoded value is a score object with an integer-like
// score in [0,100]. Fractional scores are truncated.
func validate(v any) (score int, reason string, err error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return 0, "", &ValidationError{Field: "result", Reason: fmt.Sprintf("must be an object, got %T", v)}
	}
	raw, ok := obj["score"]
	if !ok || raw == nil {
		return 0, "", &ValidationError{Field: "score", Reason: "is missing"}
	}

	var f float64
	switch s := raw.(type) {
	case json.Number:
		f, err = s.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
	case float64:
		f = s
	default:
		err = fmt.Errorf("unsupported type %T", raw)
	}
	if err != nil {
		return 0, "", &ValidationError{Field: "score", Reason: fmt.Sprintf("is not a number: %v", raw)}
	}
	if math.IsNaN(f) || f <= -1 || f >= 101 {
		return 0, "", &ValidationError{Field: "score", Reason: fmt.Sprintf("must be within 0-100, got %v", raw)}
	}
	score = int(f)
	if score < 0 || score > 100 {
		return 0, "", &ValidationError{Field: "score", Reason: fmt.Sprintf("must be within 0-100, got %v", raw)}
	}

	reason, _ = obj["reason"].(string)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = missingReason
	}
	return score, reason, nil
}
