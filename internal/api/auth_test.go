package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func okHandler(called *bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	}
}

func TestAuthDisabledAllowsEverything(t *testing.T) {
	for _, a := range []*Auth{nil, {}, NewAuth("", "", "view", "pw")} {
		if a.Enabled() {
			t.Errorf("auth should be disabled for %+v", a)
		}

		called := false
		handler := a.Operator(okHandler(&called))
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest("POST", "/timeline/stop", nil))

		if !called || w.Code != http.StatusOK {
			t.Errorf("handler should run when auth is disabled, got %d", w.Code)
		}
	}
}

func TestAuthRoles(t *testing.T) {
	a := NewAuth("op", "secret", "view", "pw")
	if !a.Enabled() {
		t.Fatal("auth should be enabled")
	}

	tests := []struct {
		name     string
		user     string
		pass     string
		noAuth   bool
		operator bool
		wantCode int
	}{
		{"no credentials", "", "", true, false, http.StatusUnauthorized},
		{"wrong password", "op", "nope", false, false, http.StatusUnauthorized},
		{"viewer on read", "view", "pw", false, false, http.StatusOK},
		{"viewer on write", "view", "pw", false, true, http.StatusForbidden},
		{"operator on read", "op", "secret", false, false, http.StatusOK},
		{"operator on write", "op", "secret", false, true, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := a.Viewer(okHandler(&called))
			if tt.operator {
				handler = a.Operator(okHandler(&called))
			}

			req := httptest.NewRequest("GET", "/test", nil)
			if !tt.noAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			w := httptest.NewRecorder()
			handler(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, w.Code)
			}
			if called != (tt.wantCode == http.StatusOK) {
				t.Errorf("handler called = %v for status %d", called, w.Code)
			}
			if tt.wantCode == http.StatusUnauthorized && w.Header().Get("WWW-Authenticate") == "" {
				t.Error("expected WWW-Authenticate header")
			}
		})
	}
}

func TestViewerWithoutCredentialsConfigured(t *testing.T) {
	a := NewAuth("op", "secret", "", "")

	req := httptest.NewRequest("GET", "/timeline", nil)
	req.SetBasicAuth("", "")
	w := httptest.NewRecorder()
	called := false
	a.Viewer(okHandler(&called))(w, req)

	if called || w.Code != http.StatusUnauthorized {
		t.Errorf("empty viewer credentials must not match, got %d", w.Code)
	}
}

func TestLoadAuthFromFiles(t *testing.T) {
	dir := t.TempDir()
	passFile := filepath.Join(dir, "op_pass")
	if err := os.WriteFile(passFile, []byte("from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SENTIENT_OPERATOR_USER", "op")
	t.Setenv("SENTIENT_OPERATOR_PASS", "")
	t.Setenv("SENTIENT_OPERATOR_PASS_FILE", passFile)
	t.Setenv("SENTIENT_VIEWER_USER", "")
	t.Setenv("SENTIENT_VIEWER_PASS", "")

	a, err := LoadAuth()
	if err != nil {
		t.Fatalf("load auth: %v", err)
	}
	if !a.Enabled() {
		t.Fatal("expected auth enabled")
	}

	req := httptest.NewRequest("GET", "/test", nil)
	req.SetBasicAuth("op", "from-file")
	if role := a.roleFor(req); role != RoleOperator {
		t.Errorf("expected operator role, got %q", role)
	}
}

func TestLoadAuthMissingFile(t *testing.T) {
	t.Setenv("SENTIENT_OPERATOR_USER_FILE", filepath.Join(t.TempDir(), "missing"))

	if _, err := LoadAuth(); err == nil {
		t.Error("expected error for missing secret file")
	}
}

func TestSecureCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"secret", "secret", true},
		{"secret", "Secret", false},
		{"secret", "secrets", false},
		{"", "", true},
	}
	for _, tt := range tests {
		if got := secureCompare(tt.a, tt.b); got != tt.want {
			t.Errorf("secureCompare(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
