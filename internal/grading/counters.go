package grading

import "github.com/mind-engage/quizgrade/internal/quiz"

// tally sorts every entry into counted or ignored as it is seen, then
// derives all aggregate counters from those two partitions.
type tally struct {
	points             int
	maxPoints          int
	completedMaxPoints int
	normalized         float64

	counted          int // scoreable entries across all buckets
	completed        int // counted entries in the answered bucket
	confirmed        int
	confirmedIgnored int
	ignored          []string // quiz ids, one per ignored entry
}

func (t *tally) ignore(q quiz.Quiz, confirmed bool) {
	t.ignored = append(t.ignored, q.ID)
	if confirmed {
		t.confirmedIgnored++
	}
}

func (t *tally) answered(v Validation, confirmed bool) {
	t.counted++
	t.completed++
	t.points += v.Points
	t.maxPoints += v.MaxPoints
	t.completedMaxPoints += v.MaxPoints
	t.normalized += v.NormalizedPoints
	if confirmed {
		t.confirmed++
	}
}

// open records an unanswered or rejected entry worth maxPoints.
func (t *tally) open(maxPoints int) {
	t.counted++
	t.maxPoints += maxPoints
}

func (t *tally) totals() Totals {
	return Totals{
		Points:                       t.points,
		MaxPoints:                    t.maxPoints,
		MaxCompletedPoints:           t.completedMaxPoints,
		ConfirmedAmount:              t.confirmed,
		IgnoredAmount:                len(t.ignored),
		ConfirmedIgnoredAmount:       t.confirmedIgnored,
		NormalizedPoints:             round2(t.normalized),
		MaxNormalizedPoints:          t.counted,
		MaxCompletedNormalizedPoints: t.completed,
		Score:                        percent(t.normalized, float64(t.counted)),
		PointsPercentage:             percent(float64(t.points), float64(t.maxPoints)),
		Progress:                     percent(float64(t.confirmed), float64(t.counted)),
	}
}
