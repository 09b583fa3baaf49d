package scoring

// Criterion carries the parts of a judging criterion the aggregate needs.
type Criterion struct {
	ID       int
	Weight   int
	MaxScore int
}

// Score is one judge's raw score for one criterion of a submission.
type Score struct {
	CriterionID int
	JudgeUserID int
	Value       int
}

// Aggregate computes the weighted aggregate score of a single submission in
// the range [0, 1].
//
// For each criterion the mean of all judges' scores is taken; a criterion
// nobody scored contributes a mean of 0 rather than being omitted, so a
// partially judged submission ranks below a fully judged one of equal
// quality. Each mean is normalized by the criterion's MaxScore before
// weighting, so criteria with larger score ranges do not dominate purely
// due to scale.
func Aggregate(criteria []Criterion, scores []Score) float64 {
	if len(criteria) == 0 {
		return 0
	}

	sums := make(map[int]int, len(criteria))
	counts := make(map[int]int, len(criteria))
	for _, s := range scores {
		sums[s.CriterionID] += s.Value
		counts[s.CriterionID]++
	}

	var weighted float64
	var totalWeight int
	for _, c := range criteria {
		totalWeight += c.Weight
		if c.MaxScore <= 0 {
			continue
		}
		var mean float64
		if n := counts[c.ID]; n > 0 {
			mean = float64(sums[c.ID]) / float64(n)
		}
		weighted += mean / float64(c.MaxScore) * float64(c.Weight)
	}

	if totalWeight == 0 {
		return 0
	}
	return weighted / float64(totalWeight)
}
