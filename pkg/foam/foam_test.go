package foam

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/foamviz/signalviz/pkg/errors"
)

const testCST = "a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90"

func TestSignalDetails(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"geohash":"gcpvj0duq","cst":"ignored","radius":5000}`)
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", server.Client())
	details, err := c.SignalDetails(context.Background(), testCST)
	if err != nil {
		t.Fatalf("SignalDetails() error: %v", err)
	}
	if details.Geohash != "gcpvj0duq" {
		t.Errorf("Geohash = %q, want %q", details.Geohash, "gcpvj0duq")
	}
	if want := "/signal/details/" + testCST; gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}
}

func TestSignalDetailsErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr errors.Code
	}{
		{"server error", http.StatusInternalServerError, "", errors.ErrCodeExternalService},
		{"unknown cst", http.StatusNotFound, "", errors.ErrCodeExternalService},
		{"malformed body", http.StatusOK, "<html>", errors.ErrCodeExternalService},
		{"missing geohash", http.StatusOK, `{}`, errors.ErrCodeExternalService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			c := NewClient(server.URL, server.Client())
			if _, err := c.SignalDetails(context.Background(), testCST); !errors.Is(err, tt.wantErr) {
				t.Errorf("SignalDetails() error = %v, want %s", err, tt.wantErr)
			}
		})
	}
}

func TestSignalDetailsEmptyCST(t *testing.T) {
	c := NewClient("", nil)
	if _, err := c.SignalDetails(context.Background(), ""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("SignalDetails() error = %v, want INVALID_INPUT", err)
	}
}
