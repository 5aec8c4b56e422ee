package application

import (
	"context"
	"testing"

	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestEvaluateGuard(t *testing.T) {
	t.Parallel()

	user := &domain.User{Username: "alice"}
	authenticated := domain.SessionSnapshot{State: domain.SessionAuthenticated, User: user}
	anonymous := domain.SessionSnapshot{State: domain.SessionUnauthenticated}

	tests := []struct {
		name         string
		snapshot     domain.SessionSnapshot
		current      domain.Route
		wantRoute    domain.Route
		wantRedirect bool
	}{
		{name: "initializing does nothing", snapshot: domain.SessionSnapshot{State: domain.SessionInitializing, Loading: true}, current: domain.RouteHome},
		{name: "loading does nothing", snapshot: domain.SessionSnapshot{State: domain.SessionAuthenticated, User: user, Loading: true}, current: domain.RouteLogin},
		{name: "anonymous on protected route", snapshot: anonymous, current: domain.RouteHome, wantRoute: domain.RouteLogin, wantRedirect: true},
		{name: "anonymous on login", snapshot: anonymous, current: domain.RouteLogin},
		{name: "anonymous on signup", snapshot: anonymous, current: domain.RouteSignup},
		{name: "authenticated on login", snapshot: authenticated, current: domain.RouteLogin, wantRoute: domain.RouteHome, wantRedirect: true},
		{name: "authenticated on signup", snapshot: authenticated, current: domain.RouteSignup, wantRoute: domain.RouteHome, wantRedirect: true},
		{name: "authenticated on home", snapshot: authenticated, current: domain.RouteHome},
		{name: "authenticated state without user", snapshot: domain.SessionSnapshot{State: domain.SessionAuthenticated}, current: domain.RouteHome, wantRoute: domain.RouteLogin, wantRedirect: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			route, redirect := EvaluateGuard(tc.snapshot, tc.current)
			assert.Equal(t, tc.wantRedirect, redirect)
			assert.Equal(t, tc.wantRoute, route)
		})
	}
}

func TestGuardFollowsSessionChanges(t *testing.T) {
	t.Parallel()
	f := newSessionFixture(t)

	guardNav := &recordingNavigator{}
	guard := NewGuard(guardNav, func() domain.Route { return domain.RouteHome })
	unsubscribe := f.session.Subscribe(guard.Apply)
	t.Cleanup(unsubscribe)

	f.session.Logout(context.Background())

	assert.Equal(t, []domain.Route{domain.RouteLogin}, guardNav.Routes())
}
