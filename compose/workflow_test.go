package compose

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puyokura/cmppfeed/api"
	"github.com/puyokura/cmppfeed/logging"
	"github.com/puyokura/cmppfeed/model"
	"github.com/puyokura/cmppfeed/route"
)

// fakePoster records payloads and answers with a canned result.
type fakePoster struct {
	mu       sync.Mutex
	payloads []model.PostPayload
	ack      model.SubmissionResult
	err      error
	release  chan struct{}
	started  chan struct{}
}

func (f *fakePoster) SubmitPost(ctx context.Context, p model.PostPayload) (model.SubmissionResult, error) {
	f.mu.Lock()
	f.payloads = append(f.payloads, p)
	f.mu.Unlock()
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	return f.ack, f.err
}

func (f *fakePoster) sent() []model.PostPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.PostPayload(nil), f.payloads...)
}

type recordingNav struct {
	routes []string
}

func (n *recordingNav) Navigate(r string) { n.routes = append(n.routes, r) }

func newWorkflow(p Poster) (*Workflow, *recordingNav, *bytes.Buffer) {
	var buf bytes.Buffer
	nav := &recordingNav{}
	return New(p, nav, logging.NewText(&buf, slog.LevelDebug)), nav, &buf
}

func TestSubmit_PassesRawNameThrough(t *testing.T) {
	names := []string{"sara", "  padded  ", "\tAda\n", "Tom & Jerry", "Zoë"}
	for _, name := range names {
		p := &fakePoster{ack: model.SubmissionResult(`{"message":"ok"}`)}
		w, _, _ := newWorkflow(p)

		draft := &model.PostDraft{StudentName: name}
		_, err := w.Submit(context.Background(), draft)
		require.NoError(t, err)

		if diff := cmp.Diff([]model.PostPayload{{StudentName: name}}, p.sent()); diff != "" {
			t.Errorf("payloads for %q (-want +got):\n%s", name, diff)
		}
	}
}

func TestSubmit_BlankDraftRejected(t *testing.T) {
	for _, name := range []string{"", " ", "\t\n ", "\u00a0"} {
		p := &fakePoster{}
		w, nav, _ := newWorkflow(p)
		draft := &model.PostDraft{StudentName: name}

		_, err := w.Submit(context.Background(), draft)

		var verr *ValidationError
		require.True(t, errors.As(err, &verr), "input %q: want ValidationError, got %v", name, err)
		assert.Equal(t, "studentName", verr.Field)
		assert.Empty(t, p.sent())
		assert.Empty(t, nav.routes)
		assert.Equal(t, name, draft.StudentName)
		assert.Equal(t, StateRejected, w.LastState())
		assert.Equal(t, StateIdle, w.State())
	}
}

func TestSubmit_SuccessClearsDraftAndNavigates(t *testing.T) {
	p := &fakePoster{ack: model.SubmissionResult(`{"message":"ok"}`)}
	w, nav, logs := newWorkflow(p)
	draft := &model.PostDraft{StudentName: "Ada Lovelace"}

	res, err := w.Submit(context.Background(), draft)
	require.NoError(t, err)

	assert.Empty(t, draft.StudentName)
	assert.Equal(t, "/social-feed?name=Ada%20Lovelace", res.Route)
	assert.Equal(t, []string{"/social-feed?name=Ada%20Lovelace"}, nav.routes)
	assert.JSONEq(t, `{"message":"ok"}`, string(res.Ack))
	assert.Equal(t, StateSucceeded, w.LastState())
	assert.Contains(t, logs.String(), "post submitted")
}

func TestSubmit_FailureKeepsDraft(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"network", &api.NetworkError{Op: "submit post", Err: errors.New("connection refused")}},
		{"parse", &api.ResponseParseError{Op: "submit post", StatusCode: 502, Err: errors.New("not json")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePoster{err: tt.err}
			w, nav, logs := newWorkflow(p)
			draft := &model.PostDraft{StudentName: "sara"}

			_, err := w.Submit(context.Background(), draft)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, "sara", draft.StudentName)
			assert.Empty(t, nav.routes)
			assert.Equal(t, StateFailed, w.LastState())
			assert.Contains(t, logs.String(), "level=ERROR")

			// Retrying the same draft sends it again.
			p.err = nil
			p.ack = model.SubmissionResult(`{}`)
			_, err = w.Submit(context.Background(), draft)
			require.NoError(t, err)
			assert.Len(t, p.sent(), 2)
			assert.Equal(t, []string{route.Feed("sara")}, nav.routes)
		})
	}
}

func TestSubmit_SecondCallWhileInFlight(t *testing.T) {
	p := &fakePoster{
		ack:     model.SubmissionResult(`{}`),
		release: make(chan struct{}),
		started: make(chan struct{}),
	}
	w, _, _ := newWorkflow(p)

	done := make(chan error, 1)
	go func() {
		_, err := w.Submit(context.Background(), &model.PostDraft{StudentName: "sara"})
		done <- err
	}()
	<-p.started

	assert.Equal(t, StateSubmitting, w.State())
	_, err := w.Submit(context.Background(), &model.PostDraft{StudentName: "sara"})
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(p.release)
	require.NoError(t, <-done)
	assert.Len(t, p.sent(), 1)
	assert.Equal(t, StateIdle, w.State())
}

// End to end through the real HTTP client.
func TestSubmit_AdaLovelaceScenario(t *testing.T) {
	bodies := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies <- string(b)
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(rw, `{"message":"ok"}`)
	}))
	defer srv.Close()

	w, nav, _ := newWorkflow(api.New(srv.URL, nil))
	draft := &model.PostDraft{StudentName: "Ada Lovelace"}

	_, err := w.Submit(context.Background(), draft)
	require.NoError(t, err)

	assert.Equal(t, `{"studentName":"Ada Lovelace"}`, <-bodies)
	assert.Empty(t, draft.StudentName)
	assert.Equal(t, []string{"/social-feed?name=Ada%20Lovelace"}, nav.routes)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "submitting", StateSubmitting.String())
	assert.Equal(t, "State(42)", State(42).String())
}
