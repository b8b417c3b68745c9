package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Generator drives one full run: model construction, search, and report
// assembly. Snapshot loading sits outside so callers control transactions.
type Generator struct {
	now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// Run builds the constraint model for the snapshot and searches for a full
// assignment. Structural impossibilities surface as a ModelError before any
// search starts; a run that exhausts its step budget yields a timeout
// outcome, not an error, so callers can persist the diagnostic report.
func (g *Generator) Run(ctx context.Context, snap *Snapshot, rules Rules, timetableID int64, generatedBy string) (*Outcome, error) {
	m, err := Build(snap, rules)
	if err != nil {
		return nil, err
	}

	generatedAt := g.now().UTC()

	res, err := Solve(ctx, m)
	if err != nil {
		var timeout *TimeoutError
		if errors.As(err, &timeout) {
			return &Outcome{
				Status: StatusTimeout,
				Report: Report{
					Status:      StatusTimeout,
					Detail:      fmt.Sprintf("search budget of %d steps exhausted with %d of %d units placed", timeout.Steps, timeout.Assigned, timeout.Total),
					Steps:       timeout.Steps,
					GeneratedAt: generatedAt,
					GeneratedBy: generatedBy,
					Rules:       rules,
				},
			}, nil
		}
		return nil, err
	}

	if len(res.Conflicts) > 0 {
		return &Outcome{
			Status: StatusInfeasible,
			Report: Report{
				Status:      StatusInfeasible,
				Conflicts:   res.Conflicts,
				Steps:       res.Stats.Steps,
				Backtracks:  res.Stats.Backtracks,
				DurationMS:  res.Stats.Duration.Milliseconds(),
				GeneratedAt: generatedAt,
				GeneratedBy: generatedBy,
				Rules:       rules,
			},
		}, nil
	}

	return materialize(m, res, timetableID, generatedAt, generatedBy), nil
}
