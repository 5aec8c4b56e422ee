package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/bnema/allergyscan-cli/internal/logger"
	"github.com/bnema/allergyscan-cli/internal/ports"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const refreshFlightKey = "refresh"

// SessionManager owns the authenticated session: the tokens in the token
// store and the validated user profile.
//
// Installing a new token pair and clearing the session both start a new
// epoch. Operations capture the epoch when they start and drop their result
// if it moved in the meantime. Logins additionally take a ticket when they
// are issued; only the most recently issued Login may install its pair, and
// a Logout voids every ticket issued before it. A Login that fails never
// moves the epoch, so a refresh running next to it still lands.
type SessionManager struct {
	store    ports.TokenStore
	identity ports.IdentityClient
	nav      ports.Navigator
	log      *zap.Logger

	refreshes singleflight.Group

	mu          sync.Mutex
	state       domain.SessionState
	user        *domain.User
	epoch       uint64
	loginTicket uint64
	inFlight    int
	subscribers map[int]func(domain.SessionSnapshot)
	nextSubID   int
}

func NewSessionManager(store ports.TokenStore, identity ports.IdentityClient, nav ports.Navigator, log *zap.Logger) *SessionManager {
	return &SessionManager{
		store:       store,
		identity:    identity,
		nav:         nav,
		log:         logger.OrNop(log).Named("session"),
		state:       domain.SessionInitializing,
		subscribers: map[int]func(domain.SessionSnapshot){},
	}
}

func (s *SessionManager) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn for every state or loading change. The returned
// func removes the subscription.
func (s *SessionManager) Subscribe(fn func(domain.SessionSnapshot)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Start validates persisted tokens. It settles the session in either the
// authenticated or the unauthenticated state; failures log out and are
// returned for diagnostics only.
//
// A canceled or expired ctx is returned as is and never logs out: the
// stored tokens were not judged.
func (s *SessionManager) Start(ctx context.Context) error {
	epoch := s.begin()
	defer s.end()

	access, hasAccess := s.store.Get(ctx, domain.AccessTokenKey)
	_, hasRefresh := s.store.Get(ctx, domain.RefreshTokenKey)
	if err := ctx.Err(); err != nil {
		return err
	}
	if !hasAccess || !hasRefresh {
		s.log.Debug("no stored session", zap.Bool("access", hasAccess), zap.Bool("refresh", hasRefresh))
		s.logoutIfCurrent(ctx, epoch)
		return domain.ErrNotAuthenticated
	}

	user, err := s.identity.Me(ctx, access)
	if errors.Is(err, domain.ErrUnauthorized) {
		s.log.Debug("stored access token rejected, refreshing")
		pair, refreshErr := s.refreshPair(ctx)
		if refreshErr != nil {
			if ctx.Err() != nil {
				return refreshErr
			}
			s.logoutIfCurrent(ctx, epoch)
			return refreshErr
		}
		user, err = s.identity.Me(ctx, pair.AccessToken)
	}
	if err != nil && ctx.Err() != nil {
		s.log.Debug("session check interrupted", zap.Error(err))
		return err
	}
	if err != nil {
		s.log.Info("stored session rejected", zap.Error(err))
		s.logoutIfCurrent(ctx, epoch)
		return fmt.Errorf("%w: %w", domain.ErrSessionExpired, err)
	}

	return s.authenticate(epoch, user)
}

// Login exchanges credentials for a token pair and loads the profile. A
// rejected login leaves state, storage and any running refresh untouched.
func (s *SessionManager) Login(ctx context.Context, username, password string) error {
	s.begin()
	defer s.end()

	s.mu.Lock()
	s.loginTicket++
	ticket := s.loginTicket
	s.mu.Unlock()

	pair, err := s.identity.Login(ctx, username, password)
	if err != nil {
		s.log.Info("login rejected", zap.String("username", username), zap.Error(err))
		return fmt.Errorf("login: %w", err)
	}

	s.mu.Lock()
	if s.loginTicket != ticket {
		s.mu.Unlock()
		return domain.ErrSessionSuperseded
	}
	s.epoch++
	epoch := s.epoch
	previous := s.readTokens(ctx)
	s.writeTokens(ctx, pair)
	s.mu.Unlock()

	user, err := s.identity.Me(ctx, pair.AccessToken)
	if err != nil {
		s.mu.Lock()
		if s.epoch == epoch {
			s.restoreTokens(ctx, previous)
		}
		s.mu.Unlock()
		s.log.Info("profile lookup after login failed", zap.String("username", username), zap.Error(err))
		return fmt.Errorf("load profile: %w", err)
	}

	return s.authenticate(epoch, user)
}

// Signup registers the account and then logs in with the same credentials.
func (s *SessionManager) Signup(ctx context.Context, email, username, password string) error {
	s.begin()
	defer s.end()

	if err := s.identity.Register(ctx, email, username, password); err != nil {
		s.log.Info("registration rejected", zap.String("username", username), zap.Error(err))
		return fmt.Errorf("register: %w", err)
	}

	return s.Login(ctx, username, password)
}

// Refresh exchanges the stored refresh token for a new pair. Any failure logs
// out. Concurrent callers share a single refresh request.
func (s *SessionManager) Refresh(ctx context.Context) error {
	_, err := s.refreshPair(ctx)
	return err
}

func (s *SessionManager) refreshPair(ctx context.Context) (domain.TokenPair, error) {
	flightCtx := context.WithoutCancel(ctx)
	results := s.refreshes.DoChan(refreshFlightKey, func() (any, error) {
		return s.refresh(flightCtx)
	})

	select {
	case <-ctx.Done():
		return domain.TokenPair{}, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return domain.TokenPair{}, res.Err
		}
		return res.Val.(domain.TokenPair), nil
	}
}

func (s *SessionManager) refresh(ctx context.Context) (domain.TokenPair, error) {
	epoch := s.begin()
	defer s.end()

	refreshToken, ok := s.store.Get(ctx, domain.RefreshTokenKey)
	if !ok {
		s.logoutIfCurrent(ctx, epoch)
		return domain.TokenPair{}, fmt.Errorf("%w: %w", domain.ErrSessionExpired, domain.ErrNoRefreshToken)
	}

	pair, err := s.identity.Refresh(ctx, refreshToken)
	if err != nil {
		s.log.Info("token refresh failed", zap.Error(err))
		if !s.logoutIfCurrent(ctx, epoch) {
			return domain.TokenPair{}, domain.ErrSessionSuperseded
		}
		return domain.TokenPair{}, fmt.Errorf("%w: %w", domain.ErrSessionExpired, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		s.log.Debug("dropping refreshed tokens from a previous session")
		return domain.TokenPair{}, domain.ErrSessionSuperseded
	}
	s.writeTokens(ctx, pair)

	return pair, nil
}

// Logout clears both tokens and the user and sends the user to the login
// route. It is safe to call repeatedly.
func (s *SessionManager) Logout(ctx context.Context) {
	s.mu.Lock()
	s.loginTicket++
	s.clearLocked(ctx)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snapshot)
	s.navigate(domain.RouteLogin)
}

func (s *SessionManager) logoutIfCurrent(ctx context.Context, epoch uint64) bool {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return false
	}
	s.clearLocked(ctx)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snapshot)
	s.navigate(domain.RouteLogin)
	return true
}

func (s *SessionManager) clearLocked(ctx context.Context) {
	storeCtx := context.WithoutCancel(ctx)
	s.epoch++
	s.store.Remove(storeCtx, domain.AccessTokenKey)
	s.store.Remove(storeCtx, domain.RefreshTokenKey)
	s.user = nil
	s.state = domain.SessionUnauthenticated
}

// WithAccessToken runs fn with the stored access token. When fn fails with
// ErrUnauthorized the session is refreshed and fn is retried once with the
// new token.
func (s *SessionManager) WithAccessToken(ctx context.Context, fn func(ctx context.Context, accessToken string) error) error {
	access, ok := s.store.Get(ctx, domain.AccessTokenKey)
	if !ok {
		return domain.ErrNotAuthenticated
	}

	err := fn(ctx, access)
	if !errors.Is(err, domain.ErrUnauthorized) {
		return err
	}

	s.log.Debug("access token rejected, refreshing")
	pair, refreshErr := s.refreshPair(ctx)
	if refreshErr != nil {
		return refreshErr
	}

	return fn(ctx, pair.AccessToken)
}

// ReloadProfile fetches the current user again, typically after the
// profile was edited.
func (s *SessionManager) ReloadProfile(ctx context.Context) error {
	s.mu.Lock()
	epoch := s.epoch
	authenticated := s.state == domain.SessionAuthenticated
	s.mu.Unlock()
	if !authenticated {
		return domain.ErrNotAuthenticated
	}

	var user domain.User
	err := s.WithAccessToken(ctx, func(ctx context.Context, accessToken string) error {
		var err error
		user, err = s.identity.Me(ctx, accessToken)
		return err
	})
	if err != nil {
		return fmt.Errorf("reload profile: %w", err)
	}

	return s.authenticate(epoch, user)
}

func (s *SessionManager) authenticate(epoch uint64, user domain.User) error {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return domain.ErrSessionSuperseded
	}
	s.user = &user
	s.state = domain.SessionAuthenticated
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snapshot)
	return nil
}

type storedTokens struct {
	access, refresh       string
	hasAccess, hasRefresh bool
}

func (s *SessionManager) readTokens(ctx context.Context) storedTokens {
	var t storedTokens
	t.access, t.hasAccess = s.store.Get(ctx, domain.AccessTokenKey)
	t.refresh, t.hasRefresh = s.store.Get(ctx, domain.RefreshTokenKey)
	return t
}

func (s *SessionManager) writeTokens(ctx context.Context, pair domain.TokenPair) {
	s.store.Set(ctx, domain.AccessTokenKey, pair.AccessToken)
	s.store.Set(ctx, domain.RefreshTokenKey, pair.RefreshToken)
}

func (s *SessionManager) restoreTokens(ctx context.Context, previous storedTokens) {
	storeCtx := context.WithoutCancel(ctx)
	restore := func(key, value string, present bool) {
		if present {
			s.store.Set(storeCtx, key, value)
			return
		}
		s.store.Remove(storeCtx, key)
	}
	restore(domain.AccessTokenKey, previous.access, previous.hasAccess)
	restore(domain.RefreshTokenKey, previous.refresh, previous.hasRefresh)
}

// begin marks an operation in flight and returns the epoch it runs in.
func (s *SessionManager) begin() uint64 {
	s.mu.Lock()
	s.inFlight++
	epoch := s.epoch
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snapshot)
	return epoch
}

func (s *SessionManager) end() {
	s.mu.Lock()
	s.inFlight--
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snapshot)
}

func (s *SessionManager) snapshotLocked() domain.SessionSnapshot {
	snapshot := domain.SessionSnapshot{
		State:   s.state,
		Loading: s.state == domain.SessionInitializing || s.inFlight > 0,
	}
	if s.user != nil {
		user := *s.user
		snapshot.User = &user
	}
	return snapshot
}

func (s *SessionManager) publish(snapshot domain.SessionSnapshot) {
	s.mu.Lock()
	subscribers := make([]func(domain.SessionSnapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}

func (s *SessionManager) navigate(route domain.Route) {
	if s.nav != nil {
		s.nav.Replace(route)
	}
}
