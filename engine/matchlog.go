package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Final scores live in fixed columns of the log's last row. The indices are
// 0-based and part of the engine's output contract.
const (
	DefaultScoreColumn1 = 7
	DefaultScoreColumn2 = 8
)

// Step is one simulation tick keyed by header name. Numeric columns are
// coerced to float64, everything else stays a string.
type Step map[string]interface{}

// MatchLog is a parsed engine log. Raw keeps the original text verbatim so
// it can be persisted for replay.
type MatchLog struct {
	Raw     string
	Headers []string
	Steps   []Step

	rows [][]string
}

// ParseMatchLog parses the engine's comma-separated log: line 1 holds the
// column headers, every later line one simulation step. At least one data
// row is required.
func ParseMatchLog(raw string) (*MatchLog, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("match log is empty")
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return nil, errors.New("match log has a header but no data rows")
	}

	headers := splitRow(lines[0])
	steps := make([]Step, 0, len(lines)-1)
	rows := make([][]string, 0, len(lines)-1)

	for _, line := range lines[1:] {
		fields := splitRow(line)
		rows = append(rows, fields)

		step := make(Step, len(headers))
		for i, h := range headers {
			if i >= len(fields) {
				break
			}
			if f, err := strconv.ParseFloat(fields[i], 64); err == nil {
				step[h] = f
			} else {
				step[h] = fields[i]
			}
		}
		steps = append(steps, step)
	}

	return &MatchLog{Raw: raw, Headers: headers, Steps: steps, rows: rows}, nil
}

// FinalScores reads both players' final scores from the last row at the
// given 0-based column indices.
func (l *MatchLog) FinalScores(col1, col2 int) (float64, float64, error) {
	last := l.rows[len(l.rows)-1]
	s1, err := scoreAt(last, col1)
	if err != nil {
		return 0, 0, err
	}
	s2, err := scoreAt(last, col2)
	if err != nil {
		return 0, 0, err
	}
	return s1, s2, nil
}

func scoreAt(row []string, col int) (float64, error) {
	if col < 0 || col >= len(row) {
		return 0, fmt.Errorf("match log final row has %d columns, score column %d is out of range", len(row), col)
	}
	score, err := strconv.ParseFloat(row[col], 64)
	if err != nil {
		return 0, fmt.Errorf("match log score column %d is not numeric: %q", col, row[col])
	}
	return score, nil
}

func splitRow(line string) []string {
	fields := strings.Split(strings.TrimRight(line, "\r"), ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}
