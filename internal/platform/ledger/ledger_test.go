package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openshelf/openshelf-backend/internal/platform/apperr"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

func testClient(t *testing.T, handler http.Handler) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return New(log, Config{BaseURL: srv.URL, Timeout: 2 * time.Second})
}

func TestRegisterAndGetHash(t *testing.T) {
	stored := map[string]string{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /hashes", func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		stored[req.MaterialID] = req.Hash
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("GET /hashes/{id}", func(w http.ResponseWriter, r *http.Request) {
		hash, ok := stored[r.PathValue("id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(hashResponse{MaterialID: r.PathValue("id"), Hash: hash})
	})

	c := testClient(t, mux)
	ctx := context.Background()

	if err := c.RegisterHash(ctx, "mat-1", "abc123"); err != nil {
		t.Fatalf("RegisterHash: %v", err)
	}
	got, err := c.GetHash(ctx, "mat-1")
	if err != nil {
		t.Fatalf("GetHash: %v", err)
	}
	if got != "abc123" {
		t.Fatalf("GetHash = %q, want abc123", got)
	}

	_, err = c.GetHash(ctx, "mat-2")
	if !errors.Is(err, apperr.ErrAttestation) {
		t.Fatalf("GetHash missing: err = %v, want ErrAttestation", err)
	}
}

func TestGetHashServerError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	_, err := c.GetHash(context.Background(), "mat-1")
	if !errors.Is(err, apperr.ErrAttestation) {
		t.Fatalf("err = %v, want ErrAttestation", err)
	}
}

func TestGetHashTimeout(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.GetHash(ctx, "mat-1")
	if !errors.Is(err, apperr.ErrAttestation) {
		t.Fatalf("err = %v, want ErrAttestation", err)
	}
}

func TestDeregisterIdempotent(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	if err := c.Deregister(context.Background(), "mat-1"); err != nil {
		t.Fatalf("Deregister on missing entry: %v", err)
	}
}

func TestNoop(t *testing.T) {
	var c Client = Noop{}
	if err := c.RegisterHash(context.Background(), "m", "h"); err != nil {
		t.Fatalf("Noop RegisterHash: %v", err)
	}
	if _, err := c.GetHash(context.Background(), "m"); !errors.Is(err, apperr.ErrAttestation) {
		t.Fatalf("Noop GetHash should report ledger unavailable")
	}
	if err := c.Deregister(context.Background(), "m"); err != nil {
		t.Fatalf("Noop Deregister: %v", err)
	}
}
