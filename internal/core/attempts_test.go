package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attemptRec(key string, score Score) ExamRecord {
	return ExamRecord{IdentifierRaw: key, IdentifierKey: key, Score: score}
}

func TestReduceAttempts_KeepsMaxValidScore(t *testing.T) {
	in := []ExamRecord{
		attemptRec("A1", ValidScore(7)),
		attemptRec("B2", ValidScore(3)),
		attemptRec("A1", ValidScore(9)),
		attemptRec("A1", InvalidScore),
	}

	out, err := ReduceAttempts(in)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "A1", out[0].IdentifierKey)
	assert.Equal(t, ValidScore(9), out[0].Score)
	assert.Equal(t, 3, out[0].AttemptCount)

	assert.Equal(t, "B2", out[1].IdentifierKey)
	assert.Equal(t, 1, out[1].AttemptCount)
}

func TestReduceAttempts_TieKeepsFirst(t *testing.T) {
	first := attemptRec("A1", ValidScore(8))
	first.Optional = map[FieldName]string{FieldTimestamp: "first"}
	second := attemptRec("A1", ValidScore(8))
	second.Optional = map[FieldName]string{FieldTimestamp: "second"}

	out, err := ReduceAttempts([]ExamRecord{first, second})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "first", out[0].Optional[FieldTimestamp])
}

func TestReduceAttempts_InvalidBeforeValid(t *testing.T) {
	out, err := ReduceAttempts([]ExamRecord{
		attemptRec("A1", InvalidScore),
		attemptRec("A1", ValidScore(0)),
	})
	require.NoError(t, err)
	assert.Equal(t, ValidScore(0), out[0].Score)
}

func TestReduceAttempts_AllInvalidKeepsFirst(t *testing.T) {
	first := attemptRec("A1", InvalidScore)
	first.ScoreRaw = TextCell("absent")
	second := attemptRec("A1", InvalidScore)
	second.ScoreRaw = TextCell("N/A")

	out, err := ReduceAttempts([]ExamRecord{first, second})
	require.NoError(t, err)
	assert.Equal(t, TextCell("absent"), out[0].ScoreRaw)
	assert.Equal(t, 2, out[0].AttemptCount)
}

func TestReduceAttempts_OnePerIdentifier(t *testing.T) {
	var in []ExamRecord
	keys := []string{"A", "B", "C", "A", "B", "A", "D", "C"}
	for i, k := range keys {
		in = append(in, attemptRec(k, ValidScore(float64(i))))
	}

	out, err := ReduceAttempts(in)
	require.NoError(t, err)
	require.Len(t, out, 4)

	best := map[string]float64{}
	for i, k := range keys {
		if float64(i) > best[k] {
			best[k] = float64(i)
		}
	}
	for _, rec := range out {
		assert.Equal(t, best[rec.IdentifierKey], rec.Score.Value, "key %s", rec.IdentifierKey)
	}
}

func TestReduceAttempts_Empty(t *testing.T) {
	out, err := ReduceAttempts(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCheckUniqueKeys(t *testing.T) {
	err := checkUniqueKeys([]ExamRecord{attemptRec("A", InvalidScore), attemptRec("A", InvalidScore)}, 2)
	var dedup *DeduplicationInvariantError
	assert.ErrorAs(t, err, &dedup)
}
