package pantry

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(ClientConfig{BaseURL: server.URL + "/apiv1"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestNewClient(t *testing.T) {
	t.Run("default base", func(t *testing.T) {
		client, err := NewClient(ClientConfig{})
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}
		if client.BaseURL() != DefaultBaseURL {
			t.Fatalf("BaseURL() = %q, want %q", client.BaseURL(), DefaultBaseURL)
		}
	})

	t.Run("trailing slash trimmed", func(t *testing.T) {
		client, err := NewClient(ClientConfig{BaseURL: "http://localhost:9000/apiv1/"})
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}
		if client.BaseURL() != "http://localhost:9000/apiv1" {
			t.Fatalf("BaseURL() = %q", client.BaseURL())
		}
	})

	t.Run("non http scheme", func(t *testing.T) {
		if _, err := NewClient(ClientConfig{BaseURL: "ftp://example.com"}); err == nil {
			t.Fatal("expected error for ftp base url")
		}
	})
}

func TestGetBuildsEscapedPath(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = io.WriteString(w, `{}`)
	})

	var out map[string]string
	if err := client.Get(context.Background(), Ref{PantryID: "abc-123", Basket: "my wall"}, &out); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if gotPath != "/apiv1/pantry/abc-123/basket/my%20wall" {
		t.Fatalf("unexpected path %q", gotPath)
	}
}

func TestGetNotFoundIsEmptyObject(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Could not get basket", http.StatusNotFound)
	})

	out := map[string]string{}
	if err := client.Get(context.Background(), Ref{PantryID: "p", Basket: "missing"}, &out); err != nil {
		t.Fatalf("Get() error = %v, want nil for 404", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty object, got %v", out)
	}
}

func TestGetServerErrorCarriesStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	var out map[string]string
	err := client.Get(context.Background(), Ref{PantryID: "p", Basket: "wall"}, &out)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %T (%v)", err, err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError || statusErr.Method != http.MethodGet {
		t.Fatalf("unexpected status error %+v", statusErr)
	}
	if err.Error() != "Pantry GET failed: 500" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestGetParsesMislabelledJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, `{"u1":"hello"}`)
	})

	var out map[string]string
	if err := client.Get(context.Background(), Ref{PantryID: "p", Basket: "wall"}, &out); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if out["u1"] != "hello" {
		t.Fatalf("expected parsed body, got %v", out)
	}
}

func TestGetUnparsableBodyIsEmpty(t *testing.T) {
	cases := map[string]string{
		"html":   `<html>rate limited</html>`,
		"array":  `["a","b"]`,
		"broken": `{"u1":`,
		"empty":  ``,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			})
			out := map[string]string{}
			if err := client.Get(context.Background(), Ref{PantryID: "p", Basket: "wall"}, &out); err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if len(out) != 0 {
				t.Fatalf("expected empty object, got %v", out)
			}
		})
	}
}

func TestPutAndPostSendJSON(t *testing.T) {
	type call struct {
		method      string
		contentType string
		body        map[string]string
	}
	var calls []call
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls = append(calls, call{method: r.Method, contentType: r.Header.Get("Content-Type"), body: body})
		w.WriteHeader(http.StatusOK)
	})

	ref := Ref{PantryID: "p", Basket: "wall"}
	if err := client.Put(context.Background(), ref, map[string]string{"u1": "a"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := client.Post(context.Background(), ref, nil); err != nil {
		t.Fatalf("Post() error = %v", err)
	}

	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].method != http.MethodPut || calls[0].body["u1"] != "a" {
		t.Fatalf("unexpected put call %+v", calls[0])
	}
	if calls[1].method != http.MethodPost || calls[1].body == nil || len(calls[1].body) != 0 {
		t.Fatalf("expected POST with {}, got %+v", calls[1])
	}
	for _, c := range calls {
		if c.contentType != "application/json" {
			t.Fatalf("expected application/json, got %q", c.contentType)
		}
	}
}

func TestWriteFailureCarriesMethod(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	err := client.Post(context.Background(), Ref{PantryID: "p", Basket: "_nameDb"}, map[string]any{})
	if err == nil || err.Error() != "Pantry POST failed: 400" {
		t.Fatalf("unexpected error %v", err)
	}
	if !IsStatus(err, http.StatusBadRequest) {
		t.Fatal("IsStatus() = false, want true")
	}
}

func TestInvalidRefIsRejectedLocally(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	if err := client.Get(context.Background(), Ref{PantryID: "p"}, nil); err == nil {
		t.Fatal("expected error for missing basket")
	}
	if called {
		t.Fatal("request should not reach the server")
	}
}
