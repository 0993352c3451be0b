package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/AaronLay10/SentientStage/internal/config"
)

// Role is what a set of credentials may do. Viewers read state and stream
// events; operators also drive the scene.
type Role string

const (
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

const authRealm = "Sentient Stage"

// Auth checks basic auth credentials. The zero value and a nil *Auth allow
// everything, which is how a dev player runs.
type Auth struct {
	operatorUser string
	operatorPass string
	viewerUser   string
	viewerPass   string
}

// NewAuth builds an Auth from explicit credentials. Auth is enabled only when
// the operator pair is set.
func NewAuth(operatorUser, operatorPass, viewerUser, viewerPass string) *Auth {
	return &Auth{
		operatorUser: operatorUser,
		operatorPass: operatorPass,
		viewerUser:   viewerUser,
		viewerPass:   viewerPass,
	}
}

// LoadAuth reads credentials from SENTIENT_OPERATOR_USER/PASS and
// SENTIENT_VIEWER_USER/PASS, honoring the *_FILE variants.
func LoadAuth() (*Auth, error) {
	secrets, err := config.ResolveSecrets(
		"SENTIENT_OPERATOR_USER",
		"SENTIENT_OPERATOR_PASS",
		"SENTIENT_VIEWER_USER",
		"SENTIENT_VIEWER_PASS",
	)
	if err != nil {
		return nil, fmt.Errorf("load auth: %w", err)
	}
	return NewAuth(
		secrets["SENTIENT_OPERATOR_USER"],
		secrets["SENTIENT_OPERATOR_PASS"],
		secrets["SENTIENT_VIEWER_USER"],
		secrets["SENTIENT_VIEWER_PASS"],
	), nil
}

// Enabled reports whether requests must carry credentials.
func (a *Auth) Enabled() bool {
	return a != nil && a.operatorUser != "" && a.operatorPass != ""
}

// roleFor returns the role for the request's credentials, or "" if they are
// missing or wrong.
func (a *Auth) roleFor(r *http.Request) Role {
	if !a.Enabled() {
		return RoleOperator
	}

	user, pass, ok := r.BasicAuth()
	if !ok {
		return ""
	}
	if secureCompare(user, a.operatorUser) && secureCompare(pass, a.operatorPass) {
		return RoleOperator
	}
	if a.viewerUser != "" && a.viewerPass != "" &&
		secureCompare(user, a.viewerUser) && secureCompare(pass, a.viewerPass) {
		return RoleViewer
	}
	return ""
}

// secureCompare performs constant-time string comparison to prevent timing attacks.
func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Require wraps handler so it only runs for one of roles. Missing or wrong
// credentials get 401, a known user without the role gets 403.
func (a *Auth) Require(handler http.HandlerFunc, roles ...Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := a.roleFor(r)
		if role == "" {
			w.Header().Set("WWW-Authenticate", `Basic realm="`+authRealm+`"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				handler(w, r)
				return
			}
		}
		http.Error(w, "Forbidden", http.StatusForbidden)
	}
}

// Viewer allows viewers and operators.
func (a *Auth) Viewer(handler http.HandlerFunc) http.HandlerFunc {
	return a.Require(handler, RoleOperator, RoleViewer)
}

// Operator allows operators only.
func (a *Auth) Operator(handler http.HandlerFunc) http.HandlerFunc {
	return a.Require(handler, RoleOperator)
}
