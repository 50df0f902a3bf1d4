package terminology

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDocument_KeepsOrder(t *testing.T) {
	doc := `{"只能": "智能", "只能化": "智能化", "嗯": "", "a": null, "只能": "智能2"}`
	rules, err := ReadDocument(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []Rule{
		{"只能", "智能2"},
		{"只能化", "智能化"},
		{"嗯", ""},
		{"a", ""},
	}, rules)
}

func TestReadDocument_Rejects(t *testing.T) {
	for name, doc := range map[string]string{
		"array":     `["a"]`,
		"number":    `{"a": 1}`,
		"truncated": `{"a": "b"`,
		"empty":     ``,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ReadDocument(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestWriteDocument(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDocument(&buf, []Rule{{"水费机", "水肥机"}, {"<嗯>", ""}}))
	assert.Equal(t, "{\n  \"水费机\": \"水肥机\",\n  \"<嗯>\": \"\"\n}\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteDocument(&buf, nil))
	assert.Equal(t, "{}\n", buf.String())
}

func TestDocumentRoundTripDefaults(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDocument(&buf, DefaultRules()))
	rules, err := ReadDocument(&buf)
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), rules)
}
