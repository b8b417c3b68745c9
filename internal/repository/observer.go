package repository

import "time"

// QueryObserver receives the label and wall-clock duration of every executed
// repository query.
type QueryObserver func(label string, duration time.Duration)

// queryTimer carries a repository's optional QueryObserver. A nil observer
// turns timing off.
type queryTimer struct {
	obs QueryObserver
}

// Observe installs the query observer. Install it before serving traffic;
// repositories do not synchronise access to it.
func (qt *queryTimer) Observe(obs QueryObserver) {
	qt.obs = obs
}

func (qt *queryTimer) timed(label string) func() {
	if qt.obs == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		qt.obs(label, time.Since(start))
	}
}
