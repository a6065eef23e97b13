package poster

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var testCreds = Credentials{
	APIKey:       "key",
	APISecret:    "key-secret",
	AccessToken:  "token",
	AccessSecret: "token-secret",
}

func TestCredentialsIsConfigured(t *testing.T) {
	if !testCreds.IsConfigured() {
		t.Fatalf("full credentials should be configured")
	}
	partial := testCreds
	partial.AccessSecret = ""
	if partial.IsConfigured() {
		t.Fatalf("missing secret should not be configured")
	}
	if (Credentials{}).IsConfigured() {
		t.Fatalf("empty credentials should not be configured")
	}
}

func TestPostRejectsOverlongText(t *testing.T) {
	client := NewClient(testCreds, 100, nil)
	result := client.Post(context.Background(), strings.Repeat("x", 150))
	if result.Success {
		t.Fatalf("over-limit text must not be posted")
	}
	if !strings.Contains(result.Error, "exceeds") {
		t.Fatalf("error should mention the limit, got %q", result.Error)
	}
}

func TestPostWithoutCredentials(t *testing.T) {
	client := NewClient(Credentials{}, 4000, nil)
	result := client.Post(context.Background(), "hello")
	if result.Success {
		t.Fatalf("posting without credentials should fail")
	}
}

func TestPostSuccess(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var payload map[string]string
		json.NewDecoder(r.Body).Decode(&payload)
		gotBody = payload["text"]
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data": {"id": "1234567890"}}`))
	}))
	defer srv.Close()

	client := NewClient(testCreds, 4000, nil, WithAPIURL(srv.URL), WithHTTPClient(srv.Client()))
	result := client.Post(context.Background(), "A measured take on eval harnesses.")
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.PostID != "1234567890" {
		t.Errorf("unexpected post id %s", result.PostID)
	}
	if result.URL != "https://x.com/i/status/1234567890" {
		t.Errorf("unexpected post url %s", result.URL)
	}
	if gotBody != "A measured take on eval harnesses." {
		t.Errorf("unexpected body %q", gotBody)
	}
	if !strings.HasPrefix(gotAuth, "OAuth ") {
		t.Errorf("expected OAuth header, got %q", gotAuth)
	}
	for _, field := range []string{"oauth_consumer_key", "oauth_nonce", "oauth_signature", "oauth_timestamp", "oauth_token"} {
		if !strings.Contains(gotAuth, field) {
			t.Errorf("auth header missing %s: %q", field, gotAuth)
		}
	}
}

func TestPostAPIRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail": "duplicate content"}`))
	}))
	defer srv.Close()

	client := NewClient(testCreds, 4000, nil, WithAPIURL(srv.URL))
	result := client.Post(context.Background(), "hello")
	if result.Success {
		t.Fatalf("403 should fail")
	}
	if !strings.Contains(result.Error, "403") {
		t.Errorf("error should carry the status, got %q", result.Error)
	}
}
