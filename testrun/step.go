package testrun

import (
	"time"
)

// Step is one narrated unit of a run: launching the browser, establishing
// the session, a navigation, or an assertion.
type Step struct {
	Index     int           `json:"index"`
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// BeginStep appends a running step to the run.
func (tr *TestRun) BeginStep(name string) *Step {
	s := &Step{
		Index:     len(tr.Steps),
		Name:      name,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}
	tr.Steps = append(tr.Steps, s)
	return s
}

// End finishes the step, failed if err is non-nil.
func (s *Step) End(err error) {
	s.Duration = time.Since(s.StartedAt)
	if err != nil {
		s.Status = StatusFailed
		s.Error = err.Error()
		return
	}
	s.Status = StatusPassed
}

// StepCounts returns how many steps passed and failed.
func (tr *TestRun) StepCounts() (passed, failed int) {
	for _, s := range tr.Steps {
		switch s.Status {
		case StatusPassed:
			passed++
		case StatusFailed:
			failed++
		}
	}
	return passed, failed
}
