package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `tick,p1_x,p1_y,p2_x,p2_y,event,phase,p1_score,p2_score,winner
1,0,0,10,10,start,early,0,0,none
2,1,0,9,10,move,early,3,1,none
3,2,1,8,9,capture,mid,12.5,7,p1
`

func TestParseMatchLog(t *testing.T) {
	log, err := ParseMatchLog(sampleLog)
	require.NoError(t, err)

	assert.Equal(t, sampleLog, log.Raw)
	require.Len(t, log.Headers, 10)
	require.Len(t, log.Steps, 3)

	// Numeric columns are coerced, text columns stay strings.
	assert.Equal(t, 1.0, log.Steps[0]["tick"])
	assert.Equal(t, "start", log.Steps[0]["event"])
	assert.Equal(t, "mid", log.Steps[2]["phase"])
	assert.Equal(t, 12.5, log.Steps[2]["p1_score"])
}

func TestFinalScores(t *testing.T) {
	log, err := ParseMatchLog(sampleLog)
	require.NoError(t, err)

	s1, s2, err := log.FinalScores(DefaultScoreColumn1, DefaultScoreColumn2)
	require.NoError(t, err)
	assert.Equal(t, 12.5, s1)
	assert.Equal(t, 7.0, s2)
}

func TestFinalScores_StableUnderReparse(t *testing.T) {
	first, err := ParseMatchLog(sampleLog)
	require.NoError(t, err)

	// Re-parsing the verbatim raw text yields the same scores.
	second, err := ParseMatchLog(first.Raw)
	require.NoError(t, err)

	a1, a2, err := first.FinalScores(DefaultScoreColumn1, DefaultScoreColumn2)
	require.NoError(t, err)
	b1, b2, err := second.FinalScores(DefaultScoreColumn1, DefaultScoreColumn2)
	require.NoError(t, err)
	assert.Equal(t, a1, b1)
	assert.Equal(t, a2, b2)
}

func TestParseMatchLog_Invalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace only", "  \n  "},
		{"header only", "tick,p1_score,p2_score"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseMatchLog(tc.raw)
			assert.Error(t, err)
		})
	}
}

func TestFinalScores_BadColumns(t *testing.T) {
	log, err := ParseMatchLog("a,b,c\n1,2,3\n")
	require.NoError(t, err)

	// Out of range.
	_, _, err = log.FinalScores(7, 8)
	assert.Error(t, err)

	// Non-numeric score cell.
	log, err = ParseMatchLog("a,b,c\n1,oops,3\n")
	require.NoError(t, err)
	_, _, err = log.FinalScores(1, 2)
	assert.Error(t, err)
}

func TestParseMatchLog_CRLFAndShortRows(t *testing.T) {
	log, err := ParseMatchLog("tick,score\r\n1,5\r\n2\r\n")
	require.NoError(t, err)
	require.Len(t, log.Steps, 2)
	assert.Equal(t, 5.0, log.Steps[0]["score"])
	// The short row simply lacks the missing column.
	_, ok := log.Steps[1]["score"]
	assert.False(t, ok)
}
