package scoring

import (
	"sort"
	"time"
)

// Entry is one submission's input into a ranking.
type Entry struct {
	SubmissionID int
	SubmittedAt  time.Time
	Score        float64
}

// Ranked is an Entry with its 1-based rank assigned.
type Ranked struct {
	Rank         int
	SubmissionID int
	SubmittedAt  time.Time
	Score        float64
}

// Rank orders entries by aggregate score descending. Ties are broken by the
// earlier SubmittedAt, and any remaining tie by ascending SubmissionID, so
// the result is a pure function of its inputs. Rank numbers are strictly
// sequential: tied entries never share a rank.
func Rank(entries []Entry) []Ranked {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)

	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.Before(b.SubmittedAt)
		}
		return a.SubmissionID < b.SubmissionID
	})

	ranked := make([]Ranked, len(sorted))
	for i, e := range sorted {
		ranked[i] = Ranked{
			Rank:         i + 1,
			SubmissionID: e.SubmissionID,
			SubmittedAt:  e.SubmittedAt,
			Score:        e.Score,
		}
	}
	return ranked
}
