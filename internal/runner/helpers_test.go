package runner

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"crudload/internal/client"
	"crudload/internal/dummy"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// recorder counts requests by method and keeps mutating bodies and paths.
type recorder struct {
	mu      sync.Mutex
	methods map[string]int
	paths   map[string]int
}

func (r *recorder) count(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.methods[method]
}

func (r *recorder) pathCounts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.paths))
	for k, v := range r.paths {
		out[k] = v
	}
	return out
}

// sandbox serves the in-memory users API seeded with n users.
func sandbox(t *testing.T, n int) (*dummy.Store, *recorder, *client.Client) {
	t.Helper()

	store := dummy.NewStore()
	store.SeedUsers(n)
	rec := &recorder{methods: map[string]int{}, paths: map[string]int{}}

	h := dummy.NewHandler(store, dummy.ServerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		rec.mu.Lock()
		rec.methods[req.Method]++
		rec.paths[req.Method+" "+req.URL.Path]++
		rec.mu.Unlock()
		h.ServeHTTP(w, req)
	}))
	t.Cleanup(srv.Close)

	return store, rec, client.New(srv.URL, 0)
}

type staticLister struct {
	users []client.User
	err   error
	calls int
}

func (s *staticLister) List(context.Context) ([]client.User, error) {
	s.calls++
	return s.users, s.err
}

func users(ids ...int) []client.User {
	out := make([]client.User, len(ids))
	for i, id := range ids {
		out[i] = client.User{ID: id}
	}
	return out
}

func ids(items []WorkItem) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
