package application

import (
	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/bnema/allergyscan-cli/internal/ports"
)

// EvaluateGuard decides where a user on current should be sent. It never
// redirects while the session is loading.
func EvaluateGuard(snapshot domain.SessionSnapshot, current domain.Route) (domain.Route, bool) {
	if snapshot.Loading {
		return "", false
	}

	authenticated := snapshot.IsAuthenticated()
	switch {
	case !authenticated && !current.PublicOnly():
		return domain.RouteLogin, true
	case authenticated && current.PublicOnly():
		return domain.RouteHome, true
	default:
		return "", false
	}
}

// Guard applies EvaluateGuard to every session change it is handed.
type Guard struct {
	nav     ports.Navigator
	current func() domain.Route
}

func NewGuard(nav ports.Navigator, current func() domain.Route) *Guard {
	return &Guard{nav: nav, current: current}
}

func (g *Guard) Apply(snapshot domain.SessionSnapshot) {
	if route, ok := EvaluateGuard(snapshot, g.current()); ok {
		g.nav.Replace(route)
	}
}
