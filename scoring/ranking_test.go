package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankOrdersByScoreThenTimeThenID(t *testing.T) {
	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t1.Add(2 * time.Hour)

	ranked := Rank([]Entry{
		{SubmissionID: 3, SubmittedAt: t3, Score: 0.5},
		{SubmissionID: 2, SubmittedAt: t2, Score: 0.9},
		{SubmissionID: 1, SubmittedAt: t1, Score: 0.9},
	})

	require.Len(t, ranked, 3)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, 1, ranked[0].SubmissionID) // earlier submission wins the tie
	assert.Equal(t, 2, ranked[1].Rank)
	assert.Equal(t, 2, ranked[1].SubmissionID)
	assert.Equal(t, 3, ranked[2].Rank)
	assert.Equal(t, 3, ranked[2].SubmissionID)
}

func TestRankBreaksFullTieByID(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	ranked := Rank([]Entry{
		{SubmissionID: 9, SubmittedAt: at, Score: 0.7},
		{SubmissionID: 4, SubmittedAt: at, Score: 0.7},
	})

	require.Len(t, ranked, 2)
	assert.Equal(t, 4, ranked[0].SubmissionID)
	assert.Equal(t, 9, ranked[1].SubmissionID)
}

func TestRankNumbersStrictlySequential(t *testing.T) {
	at := time.Now()
	entries := []Entry{
		{SubmissionID: 1, SubmittedAt: at, Score: 0.5},
		{SubmissionID: 2, SubmittedAt: at, Score: 0.5},
		{SubmissionID: 3, SubmittedAt: at, Score: 0.5},
	}

	ranked := Rank(entries)
	for i, r := range ranked {
		assert.Equal(t, i+1, r.Rank)
	}
}

func TestRankIdempotent(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	entries := []Entry{
		{SubmissionID: 1, SubmittedAt: t0, Score: 0.33},
		{SubmissionID: 2, SubmittedAt: t0.Add(time.Minute), Score: 0.91},
		{SubmissionID: 3, SubmittedAt: t0.Add(2 * time.Minute), Score: 0.91},
		{SubmissionID: 4, SubmittedAt: t0, Score: 0.1},
	}

	first := Rank(entries)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Rank(entries))
	}
	// Input order must not matter either.
	reversed := []Entry{entries[3], entries[2], entries[1], entries[0]}
	assert.Equal(t, first, Rank(reversed))
}

func TestRankEmpty(t *testing.T) {
	assert.Empty(t, Rank(nil))
}
