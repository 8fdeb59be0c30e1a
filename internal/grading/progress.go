package grading

// ValidateProgress scores the answered bucket, prices the unanswered and
// rejected ones and totals everything. Quizzes tagged "ignore" stay in the
// output buckets but contribute nothing to the totals.
func (e *Engine) ValidateProgress(p Progress) ProgressResult {
	var t tally
	res := ProgressResult{
		Answered:    make([]Validated, 0, len(p.Answered)),
		NotAnswered: make([]Unanswered, 0, len(p.NotAnswered)),
		Rejected:    make([]Rejected, 0, len(p.Rejected)),
	}

	for _, entry := range p.Answered {
		v := e.validate(entry)
		res.Answered = append(res.Answered, v)
		if entry.Quiz.Ignored() {
			t.ignore(entry.Quiz, entry.confirmed())
			continue
		}
		t.answered(v.Validation, entry.confirmed())
	}

	for _, entry := range p.NotAnswered {
		res.NotAnswered = append(res.NotAnswered, Unanswered{
			Quiz:        entry.Quiz,
			PeerReviews: entry.PeerReviews,
			Validation:  MaxPointsOnly{MaxPoints: e.price(&t, entry)},
		})
	}

	for _, entry := range p.Rejected {
		res.Rejected = append(res.Rejected, Rejected{
			Quiz:        entry.Quiz,
			Answer:      entry.Answer,
			PeerReviews: entry.PeerReviews,
			Validation:  ZeroScore{MaxPoints: e.price(&t, entry)},
		})
	}

	res.Validation = t.totals()
	return res
}

// price records an entry that cannot earn points and returns its max points;
// ignored entries are worth 0.
func (e *Engine) price(t *tally, entry Entry) int {
	if entry.Quiz.Ignored() {
		t.ignore(entry.Quiz, false)
		return 0
	}
	max := maxPointsFor(entry.Quiz)
	t.open(max)
	return max
}
