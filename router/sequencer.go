// Package router decides, once per page load, which view a browser gets and
// resolves any identity provider callback carried in the URL.
package router

import (
	"context"
	"net/url"

	apperrors "github.com/jrsteele09/homeschool-portal/internal/errors"
	"github.com/jrsteele09/homeschool-portal/oauthmodel"
)

// State of the view router.
type State int

const (
	Idle State = iota
	ExchangingCode
	Authenticated
	Unauthenticated
	CallbackFailed
)

var stateNames = map[State]string{
	Idle:            "idle",
	ExchangingCode:  "exchanging_code",
	Authenticated:   "authenticated",
	Unauthenticated: "unauthenticated",
	CallbackFailed:  "callback_failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Session is what the router needs from the session manager.
type Session interface {
	IsAuthenticated(ctx context.Context) bool
	LastProcessedCode() string
	ExchangeCodeForTokens(ctx context.Context, code string) (oauthmodel.TokenSet, error)
	SignOut(ctx context.Context) error
}

// Outcome is the view to render. When StripQuery is set the page must replace
// the current history entry with CleanURL.
type Outcome struct {
	State      State
	Err        error
	CleanURL   string
	StripQuery bool
}

// TransitionFunc observes every state change.
type TransitionFunc func(from, to State)

type Option func(*Sequencer)

// WithTransitionHook registers fn for every transition.
func WithTransitionHook(fn TransitionFunc) Option {
	return func(s *Sequencer) {
		s.onTransition = fn
	}
}

// Sequencer runs the callback state machine. It holds no per-request state
// and is safe for concurrent use.
type Sequencer struct {
	onTransition TransitionFunc
}

func New(opts ...Option) *Sequencer {
	s := &Sequencer{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type run struct {
	seq   *Sequencer
	state State
}

func (r *run) to(next State) {
	if r.seq.onTransition != nil {
		r.seq.onTransition(r.state, next)
	}
	r.state = next
}

// Resolve inspects u and settles on a view, exchanging an authorization code
// at most once per tab.
func (s *Sequencer) Resolve(ctx context.Context, sess Session, u *url.URL) Outcome {
	r := &run{seq: s, state: Idle}
	params := oauthmodel.ParseCallbackParameters(u.Query())
	clean := CleanURL(u)

	switch {
	case params.HasError():
		r.to(CallbackFailed)
		return Outcome{
			State:      CallbackFailed,
			Err:        &apperrors.CallbackError{Code: params.Error, Description: params.ErrorDescription},
			CleanURL:   clean,
			StripQuery: true,
		}

	case params.HasCode() && !sess.IsAuthenticated(ctx):
		if params.Code == sess.LastProcessedCode() {
			r.to(Authenticated)
			return Outcome{State: Authenticated, CleanURL: clean, StripQuery: true}
		}

		r.to(ExchangingCode)
		if _, err := sess.ExchangeCodeForTokens(ctx, params.Code); err != nil {
			r.to(Unauthenticated)
			return Outcome{State: Unauthenticated, Err: err, CleanURL: clean, StripQuery: true}
		}
		r.to(Authenticated)
		return Outcome{State: Authenticated, CleanURL: clean, StripQuery: true}

	case params.HasCode():
		r.to(Authenticated)
		return Outcome{State: Authenticated, CleanURL: clean, StripQuery: true}

	case sess.IsAuthenticated(ctx):
		r.to(Authenticated)
		return Outcome{State: Authenticated, CleanURL: clean}

	default:
		r.to(Unauthenticated)
		return Outcome{State: Unauthenticated, CleanURL: clean}
	}
}

// SignOut leaves the authenticated view. The session is cleared even when
// the identity provider cannot be reached.
func (s *Sequencer) SignOut(ctx context.Context, sess Session) Outcome {
	r := &run{seq: s, state: Authenticated}
	err := sess.SignOut(ctx)
	r.to(Unauthenticated)
	return Outcome{State: Unauthenticated, Err: err, CleanURL: "/"}
}

// CleanURL is u's path without query or fragment.
func CleanURL(u *url.URL) string {
	path := u.EscapedPath()
	if path == "" {
		return "/"
	}
	return path
}
