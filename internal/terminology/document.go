package terminology

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// ReadDocument decodes a JSON object of wrong -> correct strings keeping the
// key order of the document. A repeated key overwrites the earlier value in
// place.
func ReadDocument(r io.Reader) ([]Rule, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("read dictionary: expected object, got %v", tok)
	}

	var rules []Rule
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read dictionary key: %w", err)
		}
		key := keyTok.(string)

		var val *string
		if err := dec.Decode(&val); err != nil {
			return nil, fmt.Errorf("read dictionary value for %q: %w", key, err)
		}
		correct := ""
		if val != nil {
			correct = *val
		}
		if key == "" {
			continue
		}
		rules, _ = upsert(rules, key, correct)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	return rules, nil
}

// WriteDocument encodes rules as an indented JSON object in rule order,
// leaving non-ASCII text unescaped.
func WriteDocument(w io.Writer, rules []Rule) error {
	bw := bufio.NewWriter(w)
	if len(rules) == 0 {
		bw.WriteString("{}\n")
		return bw.Flush()
	}
	bw.WriteString("{\n")
	for i, r := range rules {
		k, err := quote(r.Wrong)
		if err != nil {
			return err
		}
		v, err := quote(r.Correct)
		if err != nil {
			return err
		}
		bw.WriteString("  ")
		bw.Write(k)
		bw.WriteString(": ")
		bw.Write(v)
		if i < len(rules)-1 {
			bw.WriteByte(',')
		}
		bw.WriteByte('\n')
	}
	bw.WriteString("}\n")
	return bw.Flush()
}

func quote(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
