// Package compose turns a post draft into a server-acknowledged submission
// followed by navigation to the submitter's feed.
package compose

import (
	"context"
	"fmt"
	"sync"

	"github.com/puyokura/cmppfeed/logging"
	"github.com/puyokura/cmppfeed/model"
	"github.com/puyokura/cmppfeed/route"
)

// State is where the workflow is in a submission.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateRejected
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateRejected:
		return "rejected"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Poster sends one post to the server. *api.Client implements it.
type Poster interface {
	SubmitPost(ctx context.Context, payload model.PostPayload) (model.SubmissionResult, error)
}

// Result is what a successful submission produced.
type Result struct {
	Ack   model.SubmissionResult
	Route string
}

// Workflow submits drafts. A Workflow belongs to one compose form.
type Workflow struct {
	poster Poster
	nav    route.Navigator
	logger logging.Logger

	mu       sync.Mutex
	state    State
	last     State
	inFlight bool
}

func New(poster Poster, nav route.Navigator, logger logging.Logger) *Workflow {
	return &Workflow{poster: poster, nav: nav, logger: logger}
}

// State reports the workflow's current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Submit validates draft, posts it and, on an acknowledged response, clears
// the draft and navigates to the feed for the submitted name.
//
// A blank draft fails with *ValidationError and nothing is sent. Transport
// and response-parse failures are logged, leave the draft untouched and do
// not navigate; the error is returned so the caller can decide what to show.
func (w *Workflow) Submit(ctx context.Context, draft *model.PostDraft) (Result, error) {
	if !w.begin() {
		return Result{}, ErrSubmitInFlight
	}
	defer w.end()

	if draft.Blank() {
		w.setState(StateRejected)
		return Result{}, &ValidationError{Field: "studentName", Message: "please enter a name"}
	}

	// The raw value goes on the wire; trimming is only for the blank check.
	name := draft.StudentName
	w.setState(StateSubmitting)

	ack, err := w.poster.SubmitPost(ctx, model.PostPayload{StudentName: name})
	if err != nil {
		w.setState(StateFailed)
		w.logger.Error(ctx, "post submission failed", "error", err)
		return Result{}, err
	}

	w.logger.Info(ctx, "post submitted", "response", string(ack))
	w.setState(StateSucceeded)

	draft.Clear()
	next := route.Feed(name)
	w.nav.Navigate(next)
	return Result{Ack: ack, Route: next}, nil
}

func (w *Workflow) begin() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inFlight {
		return false
	}
	w.inFlight = true
	w.state = StateValidating
	return true
}

// end returns the workflow to idle. The terminal state of the last run stays
// visible through LastState until the next Submit.
func (w *Workflow) end() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.inFlight = false
	w.last = w.state
	w.state = StateIdle
}

// LastState is the terminal state of the most recent submission.
func (w *Workflow) LastState() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

func (w *Workflow) setState(s State) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = s
}
