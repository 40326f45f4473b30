package gateway_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/habitek/inspectd/internal/config"
	"github.com/habitek/inspectd/internal/gateway"
	"github.com/habitek/inspectd/pkg/models"
)

func newTestClient(t *testing.T, handler http.Handler) *gateway.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.BackendConfig{
		BaseURL:                 srv.URL,
		Token:                   "test-token",
		Timeout:                 2 * time.Second,
		UploadTimeout:           2 * time.Second,
		Retries:                 2,
		Backoff:                 time.Millisecond,
		CircuitFailureThreshold: 100,
		CircuitReset:            50 * time.Millisecond,
	}
	c, err := gateway.NewClient(cfg, srv.Client(), nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestRetriesServerErrors(t *testing.T) {
	var hits int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			http.Error(w, "flaky", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"status":"ok"}`)
	}))

	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("health after retries: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("hits = %d, want 3", got)
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var hits int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))

	if err := c.Health(context.Background()); err == nil {
		t.Fatal("expected error for 400")
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("hits = %d, want 1 (4xx must not retry)", got)
	}
}

func TestSendsBearerToken(t *testing.T) {
	var auth string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{}`)
	}))

	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	if auth != "Bearer test-token" {
		t.Fatalf("Authorization = %q", auth)
	}
}

func TestGetInspectionNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	got, err := c.GetInspectionByID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("404 should map to nil, nil; got err %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v, want nil", got)
	}
}

func TestGetInspectionValidatesPayload(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// missing required id, status outside the enum
		fmt.Fprint(w, `{"address": "12 Oak St", "status": "weird"}`)
	}))

	if _, err := c.GetInspectionByID(context.Background(), "i1"); err == nil {
		t.Fatal("malformed backend payload accepted")
	}
}

func TestListInspectionsValidatesElements(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":"i1","status":"scheduled","inspector_id":"insp-1"},{"address":"no id"}]`)
	}))

	if _, err := c.ListInspectionsByInspector(context.Background(), "insp-1"); err == nil {
		t.Fatal("list with malformed element accepted")
	}
}

func TestCreateInspectionReturnsCanonical(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in models.Inspection
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		in.ID = "srv-42"
		json.NewEncoder(w).Encode(in)
	}))

	out, err := c.CreateInspection(context.Background(), &models.Inspection{ID: "local-1-abc", Address: "12 Oak St"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.ID != "srv-42" || out.Address != "12 Oak St" {
		t.Fatalf("canonical entity mismatch: %+v", out)
	}
}

func TestCircuitOpensAfterThreshold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := config.BackendConfig{
		BaseURL:                 srv.URL,
		Timeout:                 time.Second,
		UploadTimeout:           time.Second,
		Retries:                 0,
		Backoff:                 time.Millisecond,
		CircuitFailureThreshold: 2,
		CircuitReset:            time.Hour,
	}
	c, err := gateway.NewClient(cfg, srv.Client(), nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := c.Health(ctx); err == nil {
			t.Fatalf("call %d should have failed", i)
		}
	}
	if err := c.Health(ctx); !errors.Is(err, gateway.ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
}

func TestUploadMedia(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if got := r.FormValue("checksum"); got != "deadbeef" {
			http.Error(w, "missing checksum", http.StatusBadRequest)
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		fmt.Fprint(w, `{"url":"https://cdn.example/media/it1/photo.jpg"}`)
	}))

	url, err := c.UploadMedia(context.Background(), "media/it1/photo.jpg", bytes.NewReader([]byte("jpeg bytes")), "deadbeef")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://cdn.example/media/it1/photo.jpg" {
		t.Fatalf("url = %q", url)
	}
}
