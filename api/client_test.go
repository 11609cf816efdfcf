package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puyokura/cmppfeed/model"
)

type captured struct {
	method      string
	path        string
	contentType string
	body        string
}

type recorder struct {
	mu    sync.Mutex
	last  captured
	calls int
}

func (r *recorder) get() (captured, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.calls
}

func newServer(t *testing.T, status int, respBody string) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.calls++
		rec.last = captured{
			method:      r.Method,
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			body:        string(b),
		}
		rec.mu.Unlock()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, respBody)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestSubmitPost_SendsExactBody(t *testing.T) {
	srv, rec := newServer(t, http.StatusCreated, `{"message":"ok"}`)
	c := New(srv.URL, nil)

	res, err := c.SubmitPost(context.Background(), model.PostPayload{StudentName: "Ada Lovelace"})
	require.NoError(t, err)

	got, calls := rec.get()
	assert.JSONEq(t, `{"message":"ok"}`, string(res))
	assert.Equal(t, 1, calls)
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, PostsPath, got.path)
	assert.Equal(t, "application/json", got.contentType)
	assert.Equal(t, `{"studentName":"Ada Lovelace"}`, got.body)
}

func TestSubmitPost_PassesNameThroughUntouched(t *testing.T) {
	srv, rec := newServer(t, http.StatusCreated, `{}`)
	c := New(srv.URL, nil)

	_, err := c.SubmitPost(context.Background(), model.PostPayload{StudentName: "  <b>Tom & Jerry</b> "})
	require.NoError(t, err)
	got, _ := rec.get()
	assert.Equal(t, `{"studentName":"  <b>Tom & Jerry</b> "}`, got.body)
}

func TestSubmitPost_StatusCodeIgnoredWhenBodyIsJSON(t *testing.T) {
	srv, _ := newServer(t, http.StatusInternalServerError, `{"message":"Error submitting post"}`)
	c := New(srv.URL, nil)

	res, err := c.SubmitPost(context.Background(), model.PostPayload{StudentName: "sara"})
	require.NoError(t, err)
	assert.Contains(t, string(res), "Error submitting post")
}

func TestSubmitPost_NonJSONBody(t *testing.T) {
	for name, body := range map[string]string{
		"html":  "<html>bad gateway</html>",
		"empty": "",
	} {
		t.Run(name, func(t *testing.T) {
			srv, _ := newServer(t, http.StatusBadGateway, body)
			c := New(srv.URL, nil)

			_, err := c.SubmitPost(context.Background(), model.PostPayload{StudentName: "sara"})
			var perr *ResponseParseError
			require.True(t, errors.As(err, &perr), "want ResponseParseError, got %v", err)
			assert.Equal(t, http.StatusBadGateway, perr.StatusCode)
		})
	}
}

func TestSubmitPost_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, nil)
	_, err := c.SubmitPost(context.Background(), model.PostPayload{StudentName: "sara"})

	var nerr *NetworkError
	require.True(t, errors.As(err, &nerr), "want NetworkError, got %v", err)
	assert.Equal(t, "submit post", nerr.Op)
}

func TestSubmitPost_CanceledContext(t *testing.T) {
	srv, rec := newServer(t, http.StatusCreated, `{}`)
	c := New(srv.URL, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.SubmitPost(ctx, model.PostPayload{StudentName: "sara"})
	var nerr *NetworkError
	require.True(t, errors.As(err, &nerr))
	assert.ErrorIs(t, err, context.Canceled)
	_, calls := rec.get()
	assert.Equal(t, 0, calls)
}

func TestRegister(t *testing.T) {
	srv, rec := newServer(t, http.StatusCreated, `{"message":"Registered successfully"}`)
	c := New(srv.URL, nil)

	res, err := c.Register(context.Background(), model.RegisterPayload{Name: "sara"})
	require.NoError(t, err)
	got, _ := rec.get()
	assert.Equal(t, RegisterPath, got.path)
	assert.Equal(t, `{"name":"sara"}`, got.body)
	assert.JSONEq(t, `{"message":"Registered successfully"}`, string(res))
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := map[string]string{
		"localhost:8999":         "http://localhost:8999",
		"http://localhost:8999/": "http://localhost:8999",
		"https://feed.example":   "https://feed.example",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeBaseURL(in), in)
	}
}
