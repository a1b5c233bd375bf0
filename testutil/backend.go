package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// RecordedRequest is one call the fake backend received.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// Reply is a scripted backend answer.
type Reply struct {
	Status int
	Body   string
	Header map[string]string
}

// FakeBackend is an httptest server that records every request and answers
// from a route table keyed by "METHOD /path".
type FakeBackend struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]Reply
	requests []RecordedRequest
}

// NewFakeBackend starts a fake backend that is shut down at test end.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	fb := &FakeBackend{routes: make(map[string]Reply)}
	fb.Server = httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(fb.Close)
	return fb
}

// Handle scripts the reply for method and path. Paths are matched exactly,
// trailing slash included.
func (fb *FakeBackend) Handle(method, path string, reply Reply) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.routes[method+" "+path] = reply
}

// JSON scripts a JSON reply.
func (fb *FakeBackend) JSON(method, path string, status int, body string) {
	fb.Handle(method, path, Reply{Status: status, Body: body, Header: map[string]string{"Content-Type": "application/json"}})
}

// Requests returns a copy of everything received so far.
func (fb *FakeBackend) Requests() []RecordedRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]RecordedRequest(nil), fb.requests...)
}

// Last returns the most recent request. It fails the test if there is none.
func (fb *FakeBackend) Last(t *testing.T) RecordedRequest {
	t.Helper()
	reqs := fb.Requests()
	if len(reqs) == 0 {
		t.Fatalf("backend received no requests")
	}
	return reqs[len(reqs)-1]
}

// Count returns how many requests were received.
func (fb *FakeBackend) Count() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.requests)
}

func (fb *FakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	fb.mu.Lock()
	fb.requests = append(fb.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   body,
	})
	reply, ok := fb.routes[r.Method+" "+r.URL.Path]
	fb.mu.Unlock()

	if !ok {
		http.Error(w, `{"msg":"not found"}`, http.StatusNotFound)
		return
	}
	for k, v := range reply.Header {
		w.Header().Set(k, v)
	}
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.Copy(w, strings.NewReader(reply.Body))
}
