package dummy

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"crudload/internal/client"
)

type ServerConfig struct {
	Port int

	// Seed pre-populates the store with this many users.
	Seed int

	// ErrorRate in [0,1] answers that share of requests with a 500.
	ErrorRate float64

	// Latency is the upper bound of a random per-request delay.
	Latency time.Duration
}

// Store is an in-memory users table with a Postgres-like id sequence.
type Store struct {
	mu    sync.Mutex
	users map[int]client.User
	next  int
}

func NewStore() *Store {
	return &Store{users: make(map[int]client.User), next: 1}
}

func (s *Store) List() []client.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]client.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Get(id int) (client.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *Store) Create(in client.UserInput) client.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A restarted sequence may point at live rows; skip them like a unique violation retry would.
	for {
		if _, taken := s.users[s.next]; !taken {
			break
		}
		s.next++
	}
	u := client.User{ID: s.next, Name: in.Name, Email: in.Email}
	s.users[u.ID] = u
	s.next++
	return u
}

func (s *Store) Update(id int, in client.UserInput) (client.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return client.User{}, false
	}
	u := client.User{ID: id, Name: in.Name, Email: in.Email}
	s.users[id] = u
	return u, true
}

// Delete reports whether a row was removed.
func (s *Store) Delete(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.users[id]
	delete(s.users, id)
	return ok
}

func (s *Store) ResetSequence() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = 1
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// SeedUsers inserts n generated users.
func (s *Store) SeedUsers(n int) {
	for i := 1; i <= n; i++ {
		s.Create(client.UserInput{
			Name:  fmt.Sprintf("Seed%d", i),
			Email: fmt.Sprintf("seed%d@test.com", i),
		})
	}
}

type message struct {
	Message string `json:"message"`
}

// NewHandler serves the users API contract from store.
func NewHandler(store *Store, cfg ServerConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, store.List())
	})

	mux.HandleFunc("GET /api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		u, found := store.Get(id)
		if !found {
			writeJSON(w, http.StatusNotFound, message{"user not found"})
			return
		}
		writeJSON(w, http.StatusOK, u)
	})

	mux.HandleFunc("POST /api/users", func(w http.ResponseWriter, r *http.Request) {
		in, ok := decodeInput(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, store.Create(in))
	})

	mux.HandleFunc("PUT /api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		in, ok := decodeInput(w, r)
		if !ok {
			return
		}
		u, found := store.Update(id, in)
		if !found {
			writeJSON(w, http.StatusNotFound, message{"user not found"})
			return
		}
		writeJSON(w, http.StatusOK, u)
	})

	// Deleting a missing id still answers 200, as the real backend does.
	mux.HandleFunc("DELETE /api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		store.Delete(id)
		writeJSON(w, http.StatusOK, message{"user deleted"})
	})

	mux.HandleFunc("POST /api/users/reset-sequence", func(w http.ResponseWriter, r *http.Request) {
		store.ResetSequence()
		writeJSON(w, http.StatusOK, message{"sequence restarted"})
	})

	if cfg.ErrorRate <= 0 && cfg.Latency <= 0 {
		return mux
	}
	return chaos(mux, cfg)
}

// chaos adds random latency and failures in front of the API.
func chaos(next http.Handler, cfg ServerConfig) http.Handler {
	var mu sync.Mutex
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		var jitter time.Duration
		if cfg.Latency > 0 {
			jitter = time.Duration(rnd.Int63n(int64(cfg.Latency)))
		}
		fail := rnd.Float64() < cfg.ErrorRate
		mu.Unlock()

		time.Sleep(jitter)
		if fail {
			writeJSON(w, http.StatusInternalServerError, message{"injected failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, message{"invalid id"})
		return 0, false
	}
	return id, true
}

func decodeInput(w http.ResponseWriter, r *http.Request) (client.UserInput, bool) {
	var in client.UserInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, message{"invalid body"})
		return in, false
	}
	return in, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Start serves the sandbox API in the background. The channel receives the
// error that stopped the server, and is closed after a clean Shutdown.
func Start(cfg ServerConfig) (*http.Server, <-chan error) {
	store := NewStore()
	store.SeedUsers(cfg.Seed)

	addr := fmt.Sprintf(":%d", cfg.Port)
	fmt.Printf("👻 Sandbox users API running on http://localhost%s\n", addr)
	fmt.Printf("   Seeded %d users | error rate %.0f%% | latency up to %s\n", cfg.Seed, cfg.ErrorRate*100, cfg.Latency)
	fmt.Println("   Endpoints: GET/POST /api/users, GET/PUT/DELETE /api/users/:id, POST /api/users/reset-sequence")

	server := &http.Server{
		Addr:    addr,
		Handler: NewHandler(store, cfg),
	}

	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("sandbox API: %w", err)
		}
	}()

	return server, errs
}
