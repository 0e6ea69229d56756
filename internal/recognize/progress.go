package recognize

// tracker folds per-phase fractions into one monotonic 0..100 percentage.
type tracker struct {
	phases int
	cur    int
	last   int
	report func(percent int)
}

// newTracker creates a tracker over phases equally weighted phases.
func newTracker(phases int, report func(percent int)) *tracker {
	return &tracker{phases: phases, last: -1, report: report}
}

// advance starts the next phase.
func (t *tracker) advance() {
	if t.cur < t.phases {
		t.cur++
	}
	t.emit(float64(t.cur-1) / float64(t.phases))
}

// update reports fraction f of the current phase.
func (t *tracker) update(f float64) {
	f = min(max(f, 0), 1)
	t.emit((float64(t.cur-1) + f) / float64(t.phases))
}

// finish reports completion.
func (t *tracker) finish() {
	t.emit(1)
}

// emit forwards strictly increasing percentages.
func (t *tracker) emit(total float64) {
	percent := int(total * 100)
	if percent <= t.last {
		return
	}
	t.last = percent
	if t.report != nil {
		t.report(percent)
	}
}
