// Package pantrytest runs an in-memory stand-in for the Pantry basket API
// so client code can be tested over real HTTP.
package pantrytest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"pantrywall/internal/pantry"
)

// Call records one request the server received.
type Call struct {
	Method string
	Ref    pantry.Ref
}

// Server stores baskets as raw JSON objects keyed by pantry id and basket.
// PUT replaces a basket; POST creates it or merges top-level keys into it.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	baskets  map[pantry.Ref]map[string]json.RawMessage
	raw      map[pantry.Ref]string
	failures map[string][]int
	calls    []Call
	onCall   func(Call)
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		baskets:  make(map[pantry.Ref]map[string]json.RawMessage),
		raw:      make(map[pantry.Ref]string),
		failures: make(map[string][]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Server.Close)
	return s
}

// Client returns a pantry client pointed at this server.
func (s *Server) Client(t testing.TB) *pantry.Client {
	t.Helper()
	client, err := pantry.NewClient(pantry.ClientConfig{BaseURL: s.URL + "/apiv1"})
	if err != nil {
		t.Fatalf("pantry client: %v", err)
	}
	return client
}

// Seed stores v as the basket content.
func (s *Server) Seed(t testing.TB, ref pantry.Ref, v any) {
	t.Helper()
	encoded, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("seed %s: %v", ref, err)
	}
	var object map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &object); err != nil {
		t.Fatalf("seed %s must be an object: %v", ref, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.raw, ref)
	s.baskets[ref] = object
}

// SeedRaw makes GET on ref answer body verbatim with a text/html type.
func (s *Server) SeedRaw(ref pantry.Ref, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw[ref] = body
}

// Decode reads the stored basket into out and reports whether it exists.
func (s *Server) Decode(t testing.TB, ref pantry.Ref, out any) bool {
	t.Helper()
	s.mu.Lock()
	object, ok := s.baskets[ref]
	s.mu.Unlock()
	if !ok {
		return false
	}
	encoded, _ := json.Marshal(object)
	if err := json.Unmarshal(encoded, out); err != nil {
		t.Fatalf("decode %s: %v", ref, err)
	}
	return true
}

// FailNext makes the next requests with method answer the given statuses,
// one per request, in order.
func (s *Server) FailNext(method string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = append(s.failures[method], statuses...)
}

// OnCall runs fn for every request before it is served.
func (s *Server) OnCall(fn func(Call)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCall = fn
}

// Calls returns the requests seen so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo counts requests with method on ref.
func (s *Server) CallsTo(method string, ref pantry.Ref) int {
	count := 0
	for _, c := range s.Calls() {
		if c.Method == method && c.Ref == ref {
			count++
		}
	}
	return count
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 5 || parts[0] != "apiv1" || parts[1] != "pantry" || parts[3] != "basket" {
		http.NotFound(w, r)
		return
	}
	ref := pantry.Ref{PantryID: parts[2], Basket: parts[4]}
	call := Call{Method: r.Method, Ref: ref}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	hook := s.onCall
	var failStatus int
	if queue := s.failures[r.Method]; len(queue) > 0 {
		failStatus = queue[0]
		s.failures[r.Method] = queue[1:]
	}
	s.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if failStatus != 0 {
		w.WriteHeader(failStatus)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.get(w, ref)
	case http.MethodPut, http.MethodPost:
		s.write(w, r, ref)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) get(w http.ResponseWriter, ref pantry.Ref) {
	s.mu.Lock()
	raw, hasRaw := s.raw[ref]
	object, ok := s.baskets[ref]
	var encoded []byte
	if ok {
		encoded, _ = json.Marshal(object)
	}
	s.mu.Unlock()

	if hasRaw {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, raw)
		return
	}
	if !ok {
		http.Error(w, "Could not get basket "+ref.Basket, http.StatusNotFound)
		return
	}
	// Pantry has been seen answering JSON with a text/html content type.
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(encoded)
}

func (s *Server) write(w http.ResponseWriter, r *http.Request, ref pantry.Ref) {
	var incoming map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		http.Error(w, "body must be a JSON object", http.StatusBadRequest)
		return
	}
	if incoming == nil {
		incoming = map[string]json.RawMessage{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.raw, ref)
	existing, ok := s.baskets[ref]
	if r.Method == http.MethodPost && ok {
		for k, v := range incoming {
			existing[k] = v
		}
	} else {
		s.baskets[ref] = incoming
	}
	_, _ = io.WriteString(w, "Your Pantry was updated with basket: "+ref.Basket)
}
