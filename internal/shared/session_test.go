package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseSession(t *testing.T) {
	tt := []struct {
		name       string
		curlCmd    string
		wantToken  string
		wantCookie string
		wantErr    bool
	}{
		{
			name:      "bearer token with single quotes",
			curlCmd:   `curl -H 'Authorization: Bearer token123' http://127.0.0.1:5000/task/list`,
			wantToken: "token123",
		},
		{
			name:      "bearer token with double quotes and long flag",
			curlCmd:   `curl --header "Authorization: Bearer token123" http://127.0.0.1:5000/task/list`,
			wantToken: "token123",
		},
		{
			name:       "cookie header",
			curlCmd:    `curl -H 'Cookie: session=abc123' http://127.0.0.1:5000/task/list`,
			wantCookie: "session=abc123",
		},
		{
			name:       "-b flag wins over cookie header",
			curlCmd:    `curl -H 'Cookie: old=value' -b 'session=new' http://127.0.0.1:5000/`,
			wantCookie: "session=new",
		},
		{
			name: "multiline command",
			curlCmd: `curl 'http://127.0.0.1:5000/task/list' \
  -H 'accept: application/json' \
  -H 'authorization: Bearer abc' \
  -H 'cookie: session=xyz'`,
			wantToken:  "abc",
			wantCookie: "session=xyz",
		},
		{
			name:    "basic auth is not a bearer token",
			curlCmd: `curl -H 'Authorization: Basic Zm9vOmJhcg==' http://127.0.0.1:5000/`,
			wantErr: true,
		},
		{
			name:    "no credentials",
			curlCmd: `curl http://127.0.0.1:5000/`,
			wantErr: true,
		},
		{
			name:    "empty command",
			curlCmd: "",
			wantErr: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			s, err := ParseSession(tc.curlCmd)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseSession() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if s.Token != tc.wantToken {
				t.Errorf("Token = %q, want %q", s.Token, tc.wantToken)
			}
			if s.Cookie != tc.wantCookie {
				t.Errorf("Cookie = %q, want %q", s.Cookie, tc.wantCookie)
			}
		})
	}
}

func TestParseSessionFile(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "curl.sh")
		if err := os.WriteFile(path, []byte(`curl -b 'session=1' http://x`), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		s, err := ParseSessionFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Cookie != "session=1" {
			t.Errorf("Cookie = %q", s.Cookie)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := ParseSessionFile(filepath.Join(t.TempDir(), "missing.sh")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestSessionApply(t *testing.T) {
	config := DefaultConfig()
	config.API.Token = "keep"

	(&Session{Cookie: "session=2"}).Apply(config)

	if config.API.Token != "keep" {
		t.Errorf("empty token should not overwrite existing one, got %q", config.API.Token)
	}
	if config.API.Cookie != "session=2" {
		t.Errorf("Cookie = %q", config.API.Cookie)
	}
}
