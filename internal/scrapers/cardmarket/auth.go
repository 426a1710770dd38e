package cardmarket

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"cardmarket-monitor/internal/components/telemetry"
)

const (
	report_auth_login = "auth.login"
)

// loginTokenField is the hidden form input carrying the csrf-like token.
const loginTokenField = "__cmtkn"

type authState int32

const (
	stateLoggedOut authState = iota
	stateLoggingIn
	stateLoggedIn
)

func (s authState) String() string {
	switch s {
	case stateLoggedOut:
		return "logged_out"
	case stateLoggingIn:
		return "logging_in"
	case stateLoggedIn:
		return "logged_in"
	}
	return fmt.Sprintf("auth_state(%d)", int32(s))
}

type Credentials struct {
	Username string
	Password string
	Game     Game
}

// pageSession is the part of the session client the authenticator needs.
type pageSession interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
	SubmitLogin(ctx context.Context, loginURL string, form map[string]string) (string, error)
}

// authenticator tracks whether the session is logged in and performs the
// login handshake. Transitions happen only on the scraper's worker, the state
// is atomic so that it can be read from anywhere.
type authenticator struct {
	creds Credentials
	urls  endpoints
	state atomic.Int32
	tel   telemetry.API
}

func newAuthenticator(creds Credentials, urls endpoints, tel telemetry.API) *authenticator {
	return &authenticator{creds: creds, urls: urls, tel: tel}
}

func (a *authenticator) State() authState {
	return authState(a.state.Load())
}

func (a *authenticator) set(s authState) {
	a.state.Store(int32(s))
}

// Reset forgets the login, the next EnsureLoggedIn logs in again.
func (a *authenticator) Reset() {
	a.set(stateLoggedOut)
}

// Login runs the handshake: harvest the token from the landing page, post
// the credentials, then look for the username in the answer.
func (a *authenticator) Login(ctx context.Context, session pageSession) (bool, error) {
	a.set(stateLoggingIn)

	landing, err := session.Fetch(ctx, a.urls.landing())
	if err != nil {
		a.set(stateLoggedOut)
		return false, fmt.Errorf("load landing page: %w", err)
	}

	form := map[string]string{
		"username":     a.creds.Username,
		"userPassword": a.creds.Password,
		"referalPage":  a.urls.referalPage(),
	}
	token := ParseLoginToken(landing)
	if token != "" {
		form[loginTokenField] = token
	} else {
		a.tel.ReportDebug("login token missing, submitting without it")
	}

	body, err := session.SubmitLogin(ctx, a.urls.login(), form)
	if err != nil {
		a.set(stateLoggedOut)
		return false, fmt.Errorf("submit login: %w", err)
	}

	if !strings.Contains(strings.ToLower(body), strings.ToLower(a.creds.Username)) {
		a.set(stateLoggedOut)
		a.tel.ReportWarning(report_auth_login, "username not found in login response", a.creds.Username)
		return false, &AuthError{Message: "login failed - invalid credentials"}
	}

	a.set(stateLoggedIn)
	a.tel.ReportDebug("logged in", a.creds.Username)
	return true, nil
}

// EnsureLoggedIn is a no-op when already logged in.
func (a *authenticator) EnsureLoggedIn(ctx context.Context, session pageSession) error {
	if a.State() == stateLoggedIn {
		return nil
	}
	_, err := a.Login(ctx, session)
	return err
}
