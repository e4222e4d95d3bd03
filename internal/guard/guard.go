// Package guard decides, for a requested screen and the current auth state,
// whether to render it or redirect. It performs no I/O.
package guard

import (
	"strings"
)

// Action is the outcome kind of a decision.
type Action string

const (
	Render   Action = "render"
	Redirect Action = "redirect"
)

// Decision is either Render or a redirect to Target.
type Decision struct {
	Action Action
	Target string
}

// RenderDecision is the Render outcome.
var RenderDecision = Decision{Action: Render}

// RedirectTo builds a redirect decision.
func RedirectTo(route string) Decision {
	return Decision{Action: Redirect, Target: route}
}

// AuthState is the only input the guard reads from the auth machine.
type AuthState interface {
	IsAuthenticated() bool
}

// Guard evaluates the route table. It is immutable once built.
type Guard struct {
	signIn    string
	home      string
	public    map[string]struct{}
	protected map[string]struct{}
}

// New builds a guard from routes. Routes are normalized on the way in.
func New(routes Routes) *Guard {
	g := &Guard{
		signIn:    Normalize(routes.SignIn),
		home:      Normalize(routes.Home),
		public:    make(map[string]struct{}, len(routes.Public)),
		protected: make(map[string]struct{}, len(routes.Protected)),
	}
	for _, r := range routes.Public {
		g.public[Normalize(r)] = struct{}{}
	}
	for _, r := range routes.Protected {
		g.protected[Normalize(r)] = struct{}{}
	}
	return g
}

// SignIn is the sign-in route.
func (g *Guard) SignIn() string { return g.signIn }

// Home is the default authenticated route.
func (g *Guard) Home() string { return g.home }

// Known reports whether route is in the table.
func (g *Guard) Known(route string) bool {
	r := Normalize(route)
	return g.isPublic(r) || g.isProtected(r)
}

// Decide applies the rules in order: public screens bounce authenticated
// users home, protected screens bounce anonymous users to sign-in, unknown
// routes go to whichever of the two fits, and everything else renders. The
// index route is protected and always sends authenticated users home.
func (g *Guard) Decide(route string, state AuthState) Decision {
	r := Normalize(route)
	authenticated := state != nil && state.IsAuthenticated()

	switch {
	case g.isPublic(r) && authenticated:
		return RedirectTo(g.home)
	case g.isProtected(r) && !authenticated:
		return RedirectTo(g.signIn)
	case !g.isPublic(r) && !g.isProtected(r):
		if authenticated {
			return RedirectTo(g.home)
		}
		return RedirectTo(g.signIn)
	case r == "/" && g.home != "/":
		return RedirectTo(g.home)
	}
	return RenderDecision
}

func (g *Guard) isPublic(r string) bool {
	_, ok := g.public[r]
	return ok
}

func (g *Guard) isProtected(r string) bool {
	_, ok := g.protected[r]
	return ok
}

// Normalize drops query and fragment, lower-cases, ensures a leading slash
// and trims trailing slashes.
func Normalize(route string) string {
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		route = route[:i]
	}
	route = strings.ToLower(strings.TrimSpace(route))
	route = strings.TrimRight(route, "/")
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return route
}
