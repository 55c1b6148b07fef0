package integrations

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/foamviz/signalviz/pkg/errors"
	"github.com/foamviz/signalviz/pkg/observability"
)

func TestNewClient(t *testing.T) {
	headers := map[string]string{"User-Agent": "signalviz-test"}
	client := NewClient(nil, "test", headers)

	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.http == nil {
		t.Error("NewClient() should default the fetcher")
	}
	if client.headers["User-Agent"] != "signalviz-test" {
		t.Error("NewClient() headers not set correctly")
	}
}

func TestClientGet(t *testing.T) {
	type response struct {
		Geohash string `json:"geohash"`
	}

	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		gotAgent = r.Header.Get("User-Agent")
		json.NewEncoder(w).Encode(response{Geohash: "gcpvj0"})
	}))
	defer server.Close()

	client := NewClient(server.Client(), "test", map[string]string{"User-Agent": "signalviz"})

	var resp response
	if err := client.Get(context.Background(), server.URL, &resp); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if resp.Geohash != "gcpvj0" {
		t.Errorf("Get() geohash = %q, want %q", resp.Geohash, "gcpvj0")
	}
	if gotAgent != "signalviz" {
		t.Errorf("User-Agent = %q, want %q", gotAgent, "signalviz")
	}
}

func TestClientGetBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer server.Close()

	client := NewClient(server.Client(), "test", nil)

	data, err := client.GetBytes(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("GetBytes() error: %v", err)
	}
	if string(data) != "\x89PNG" {
		t.Errorf("GetBytes() = %q", data)
	}
}

func TestClientStatusErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		notFound bool
	}{
		{"not found", http.StatusNotFound, true},
		{"unauthorized", http.StatusUnauthorized, false},
		{"unprocessable", http.StatusUnprocessableEntity, false},
		{"server error", http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewClient(server.Client(), "test", nil)
			_, err := client.GetBytes(context.Background(), server.URL+"?access_token=secret")
			if !errors.Is(err, errors.ErrCodeExternalService) {
				t.Fatalf("GetBytes() error = %v, want EXTERNAL_SERVICE", err)
			}
			if got := stderrors.Is(err, ErrNotFound); got != tt.notFound {
				t.Errorf("errors.Is(err, ErrNotFound) = %v, want %v", got, tt.notFound)
			}
			if strings.Contains(err.Error(), "secret") {
				t.Errorf("error leaks access token: %v", err)
			}
		})
	}
}

func TestClientTransportError(t *testing.T) {
	calls := 0
	fail := FetcherFunc(func(*http.Request) (*http.Response, error) {
		calls++
		return nil, stderrors.New("connection refused")
	})
	client := NewClient(fail, "test", nil)

	_, err := client.GetBytes(context.Background(), "http://example.invalid/x")
	if !errors.Is(err, errors.ErrCodeExternalService) {
		t.Errorf("GetBytes() error = %v, want EXTERNAL_SERVICE", err)
	}
	if !stderrors.Is(err, ErrNetwork) {
		t.Errorf("GetBytes() error = %v, want ErrNetwork in chain", err)
	}
	if calls != 1 {
		t.Errorf("fetch calls = %d, want exactly 1 (no retry)", calls)
	}
}

func TestClientContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	block := FetcherFunc(func(r *http.Request) (*http.Response, error) {
		return nil, r.Context().Err()
	})
	client := NewClient(block, "test", nil)

	_, err := client.GetBytes(ctx, "http://example.invalid/x")
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("GetBytes() error = %v, want context.Canceled", err)
	}
}

func TestClientDecodeError(t *testing.T) {
	body := FetcherFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("not json"))}, nil
	})
	client := NewClient(body, "test", nil)

	var v map[string]string
	if err := client.Get(context.Background(), "http://example.invalid/x", &v); !errors.Is(err, errors.ErrCodeExternalService) {
		t.Errorf("Get() error = %v, want EXTERNAL_SERVICE", err)
	}
}

func TestJoinURL(t *testing.T) {
	got, err := JoinURL("https://api.example.com/v1", "signal", "details", "ab cd")
	if err != nil {
		t.Fatalf("JoinURL() error: %v", err)
	}
	if want := "https://api.example.com/v1/signal/details/ab%20cd"; got != want {
		t.Errorf("JoinURL() = %q, want %q", got, want)
	}
}

func TestNewHTTPClientDefaultTimeout(t *testing.T) {
	if got := NewHTTPClient(0).Timeout; got != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", got, DefaultTimeout)
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	paths    []string
	statuses []int
}

func (h *recordingHTTPHooks) OnRequest(_ context.Context, _, _, path string) {
	h.paths = append(h.paths, path)
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, _, _, _ string, status int, _ time.Duration) {
	h.statuses = append(h.statuses, status)
}

func TestClientEmitsHTTPHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.Client(), "test", nil)
	client.GetBytes(context.Background(), server.URL+"/styles/x?access_token=secret")

	if len(hooks.paths) != 1 || hooks.paths[0] != "/styles/x" {
		t.Errorf("request paths = %v, want [/styles/x]", hooks.paths)
	}
	if len(hooks.statuses) != 1 || hooks.statuses[0] != http.StatusNotFound {
		t.Errorf("statuses = %v, want [404]", hooks.statuses)
	}
}
