package beneficiary

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnp/financing/internal/domain"
)

func TestClientLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/members/ben-001" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"ben-001","display_name":"Maria Lopez"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	ref, err := client.Lookup(context.Background(), "ben-001")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}

	if ref.ID != "ben-001" || ref.DisplayName != "Maria Lopez" {
		t.Fatalf("unexpected beneficiary: %+v", ref)
	}
}

func TestClientLookupNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.Lookup(context.Background(), "missing")
	if !errors.Is(err, domain.ErrBeneficiaryNotFound) {
		t.Fatalf("expected beneficiary not found, got %v", err)
	}
}

func TestClientLookupRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"id":"ben-002","display_name":"Jose Ramirez"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	ref, err := client.Lookup(context.Background(), "ben-002")
	if err != nil {
		t.Fatalf("lookup failed after retry: %v", err)
	}

	if calls.Load() < 2 {
		t.Fatalf("expected retry after server error, got %d calls", calls.Load())
	}
	if ref.DisplayName != "Jose Ramirez" {
		t.Fatalf("unexpected beneficiary: %+v", ref)
	}
}
