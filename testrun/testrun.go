// Package testrun holds the record of one verification run: its status
// lifecycle, the steps it executed, and the evidence it wrote.
package testrun

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidName is returned when a run has no name.
	ErrInvalidName = errors.New("run name is required")

	// ErrInvalidStatus is returned when status is invalid.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrTestRunNotRunning is returned when trying to complete a test run that's not running.
	ErrTestRunNotRunning = errors.New("test run is not running")

	// ErrTestRunAlreadyStarted is returned when trying to start an already started test run.
	ErrTestRunAlreadyStarted = errors.New("test run already started")
)

// Status represents the status of a run or of one of its steps.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusPassed, StatusFailed:
		return true
	default:
		return false
	}
}

// IsFinal checks if the status is a final status (can't be changed).
func (s Status) IsFinal() bool {
	return s == StatusPassed || s == StatusFailed
}

// TestRun is the record of one verification run. It is built up while the
// run executes and printed at the end.
type TestRun struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	BaseURL  string    `json:"base_url"`
	Strategy string    `json:"strategy,omitempty"`
	Status   Status    `json:"status"`

	// Error, ErrorKind and FailedStep describe the failure that ended the run.
	Error      string `json:"error,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty"`
	FailedStep string `json:"failed_step,omitempty"`

	Steps  []*Step `json:"steps"`
	Assets []Asset `json:"assets"`

	// CaptureErrors are evidence failures. They never replace the primary error.
	CaptureErrors []string `json:"capture_errors,omitempty"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// New creates a pending run record with a fresh ID.
func New(name, baseURL string) *TestRun {
	return &TestRun{
		ID:        uuid.New(),
		Name:      name,
		BaseURL:   baseURL,
		Status:    StatusPending,
		Steps:     []*Step{},
		Assets:    []Asset{},
		CreatedAt: time.Now(),
	}
}

// Validate checks if the test run has valid required fields.
func (tr *TestRun) Validate() error {
	if tr.Name == "" {
		return ErrInvalidName
	}
	if !tr.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// Start sets the started_at timestamp and changes status to running.
// Returns an error if the test run has already been started or is invalid.
func (tr *TestRun) Start() error {
	if tr.StartedAt != nil {
		return ErrTestRunAlreadyStarted
	}
	if err := tr.Validate(); err != nil {
		return err
	}
	now := time.Now()
	tr.StartedAt = &now
	tr.Status = StatusRunning
	return nil
}

// Pass completes the run successfully.
func (tr *TestRun) Pass() error {
	return tr.complete(StatusPassed)
}

// Fail completes the run as failed, recording the error, its kind and the
// step it happened in.
func (tr *TestRun) Fail(kind, step string, err error) error {
	if e := tr.complete(StatusFailed); e != nil {
		return e
	}
	tr.ErrorKind = kind
	tr.FailedStep = step
	if err != nil {
		tr.Error = err.Error()
	}
	return nil
}

func (tr *TestRun) complete(status Status) error {
	if tr.Status != StatusRunning {
		return ErrTestRunNotRunning
	}
	if !status.IsFinal() {
		return ErrInvalidStatus
	}
	now := time.Now()
	tr.CompletedAt = &now
	tr.Status = status
	return nil
}

// AddCaptureError records a failed evidence capture.
func (tr *TestRun) AddCaptureError(err error) {
	if err != nil {
		tr.CaptureErrors = append(tr.CaptureErrors, err.Error())
	}
}

// Duration is the time between Start and completion, or until now while
// the run is still going.
func (tr *TestRun) Duration() time.Duration {
	if tr.StartedAt == nil {
		return 0
	}
	if tr.CompletedAt == nil {
		return time.Since(*tr.StartedAt)
	}
	return tr.CompletedAt.Sub(*tr.StartedAt)
}
