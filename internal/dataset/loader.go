// Package dataset reads call records and terminology rules from Excel
// workbooks. Only the first sheet is read and the first row must be a header.
package dataset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"sales-intent-go/internal/logger"
	"sales-intent-go/internal/terminology"
	"sales-intent-go/internal/types"
)

var ErrNoRows = errors.New("no data rows")

func firstSheetRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, ErrNoRows
	}
	return rows, nil
}

// column returns the index of the first header containing any of the
// hints, or -1.
func column(header []string, hints ...string) int {
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		for _, hint := range hints {
			if strings.Contains(l, hint) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Load reads call records, detecting the file id, customer and transcript
// columns by header. Rows without a transcript are skipped.
func Load(path string) ([]types.CallRecord, error) {
	log := logger.Component("dataset").WithField("path", path)
	rows, err := firstSheetRows(path)
	if err != nil {
		return nil, err
	}
	header := rows[0]

	textIdx := column(header, "transcript", "text", "content", "转写", "文本", "内容")
	if textIdx == -1 {
		return nil, fmt.Errorf("no transcript column in header %q", header)
	}
	fileIdx := column(header, "file", "call id", "callid", "录音", "文件")
	customerIdx := column(header, "customer", "subject", "客户", "姓名")

	var out []types.CallRecord
	skipped := 0
	for _, r := range rows[1:] {
		rec := types.CallRecord{
			FileID:     cell(r, fileIdx),
			Customer:   cell(r, customerIdx),
			Transcript: cell(r, textIdx),
		}
		if rec.Transcript == "" {
			skipped++
			continue
		}
		out = append(out, rec)
	}
	log.WithField("records", len(out)).WithField("skipped", skipped).Info("call sheet loaded")
	return out, nil
}

// LoadRules reads wrong/correct term pairs. Without recognizable headers the
// first two columns are used. Rows with an empty wrong term are skipped; an
// empty correct term is a deletion rule.
func LoadRules(path string) ([]terminology.Rule, error) {
	rows, err := firstSheetRows(path)
	if err != nil {
		return nil, err
	}
	header := rows[0]
	wrongIdx := column(header, "wrong", "错误", "原词")
	correctIdx := column(header, "correct", "正确", "替换")
	if wrongIdx == -1 || correctIdx == -1 {
		wrongIdx, correctIdx = 0, 1
	}

	var rules []terminology.Rule
	for _, r := range rows[1:] {
		wrong := cell(r, wrongIdx)
		if wrong == "" {
			continue
		}
		rules = append(rules, terminology.Rule{Wrong: wrong, Correct: cell(r, correctIdx)})
	}
	return rules, nil
}
