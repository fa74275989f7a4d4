package social

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deletia/deletia/internal/model"
)

func TestExists(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		want    model.Existence
		wantErr bool
	}{
		{name: "live post", status: http.StatusOK, want: model.ExistenceLive},
		{name: "deleted post", status: http.StatusNotFound, want: model.ExistenceGone},
		{name: "withdrawn post", status: http.StatusGone, want: model.ExistenceGone},
		{name: "suspended account", status: http.StatusForbidden, want: model.ExistenceGone},
		{name: "throttled", status: http.StatusTooManyRequests, want: model.ExistenceUnchecked, wantErr: true},
		{name: "server error", status: http.StatusInternalServerError, want: model.ExistenceUnchecked, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			// Route the canonical post URL to the test server.
			client := NewClient(WithHTTPClient(&http.Client{
				Transport: rewriteTransport{base: server.URL},
			}))

			got, err := client.Exists(context.Background(), model.MustNewPostID("1354852772606152705"))
			if tt.wantErr {
				if err == nil {
					t.Fatal("Exists() error = nil, want error")
				}
			} else if err != nil {
				t.Fatalf("Exists() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Exists() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExistsSendsBearerToken(t *testing.T) {
	t.Parallel()

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(
		WithHTTPClient(&http.Client{Transport: rewriteTransport{base: server.URL}}),
		WithBearerToken("secret-token"),
	)
	if _, err := client.Exists(context.Background(), model.MustNewPostID("1")); err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
}

// rewriteTransport redirects every request to the test server while
// preserving path and headers.
type rewriteTransport struct {
	base string
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rewritten, err := http.NewRequestWithContext(req.Context(), req.Method, rt.base+req.URL.Path, req.Body)
	if err != nil {
		return nil, err
	}
	rewritten.Header = req.Header
	return http.DefaultTransport.RoundTrip(rewritten)
}
