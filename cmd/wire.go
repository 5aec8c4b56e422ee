package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bnema/allergyscan-cli/internal/adapters/backend"
	"github.com/bnema/allergyscan-cli/internal/adapters/identity"
	resultsadapter "github.com/bnema/allergyscan-cli/internal/adapters/render/results"
	tomlrepo "github.com/bnema/allergyscan-cli/internal/adapters/repo/toml"
	chainstore "github.com/bnema/allergyscan-cli/internal/adapters/secrets/chain"
	"github.com/bnema/allergyscan-cli/internal/application"
	"github.com/bnema/allergyscan-cli/internal/config"
	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/bnema/allergyscan-cli/internal/logger"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	errLoginRequired   = errors.New("not logged in, run `ascan login` first")
	errAlreadyLoggedIn = errors.New("already logged in, run `ascan logout` first")
)

type app struct {
	cfg          config.Config
	log          *zap.Logger
	baseURL      string
	environments *tomlrepo.Repository
	session      *application.SessionManager
	nav          *cliNavigator
	guard        *application.Guard
	profile      *application.ProfileService
	scans        *application.ScanService
	medicines    *application.MedicineService
	renderer     renderer
	now          func() time.Time

	route domain.Route
}

type renderer struct {
	scan      func(application.ScanResult) (string, error)
	history   func([]domain.ScanRecord) (string, error)
	profile   func(domain.User) (string, error)
	common    func([]domain.Allergy) (string, error)
	medicines func([]domain.Medicine, time.Time) (string, error)
	emergency func([]string) (string, error)
}

// wireApp fills a in place; commands hold the pointer from construction time.
func wireApp(a *app, v *viper.Viper, logOutput io.Writer) error {
	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, logOutput)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	environments, err := tomlrepo.NewRepository(cfg.EnvironmentsPath)
	if err != nil {
		return fmt.Errorf("wire environment repository: %w", err)
	}

	baseURL := config.ResolveBaseURL(cfg, func() (domain.Environment, bool) {
		env, err := environments.Active(context.Background())
		if err != nil {
			if !errors.Is(err, domain.ErrEnvironmentNotFound) {
				log.Warn("read active environment failed", zap.Error(err))
			}
			return domain.Environment{}, false
		}
		return env, true
	})
	log.Debug("resolved api base url", zap.String("base_url", baseURL))

	tokens := chainstore.NewPassFirstWithFileFallback(cfg.PassPrefix, cfg.SecretsDir, log.Named("tokens"))
	identityClient := identity.NewClient(baseURL, http.DefaultClient, cfg.RequestTimeout, log.Named("identity"))
	backendClient := backend.NewClient(baseURL, http.DefaultClient, cfg.RequestTimeout, log.Named("backend"))

	*a = app{
		cfg:          cfg,
		log:          log,
		baseURL:      baseURL,
		environments: environments,
		nav:          &cliNavigator{},
		renderer: renderer{
			scan:      resultsadapter.RenderScan,
			history:   resultsadapter.RenderHistory,
			profile:   resultsadapter.RenderProfile,
			common:    resultsadapter.RenderCommonAllergies,
			medicines: resultsadapter.RenderMedicines,
			emergency: resultsadapter.RenderEmergency,
		},
		now: time.Now,
	}
	a.session = application.NewSessionManager(tokens, identityClient, a.nav, log.Named("session"))
	a.guard = application.NewGuard(a.nav, a.currentRoute)
	a.session.Subscribe(a.guard.Apply)
	a.profile = application.NewProfileService(a.session, identityClient)
	a.scans = application.NewScanService(backendClient, backendClient, backendClient, log.Named("scan"))
	a.medicines = application.NewMedicineService(a.session, backendClient)

	return nil
}

func (a *app) currentRoute() domain.Route {
	return a.route
}

// enter restores the persisted session for route. The guard subscribed in
// wireApp sees the settled session; a redirect away from route becomes an
// error naming the command the user should run instead.
func (a *app) enter(ctx context.Context, route domain.Route) error {
	a.route = route

	if err := a.session.Start(ctx); err != nil {
		if ctx.Err() != nil {
			return err
		}
		a.log.Debug("no session restored", zap.Error(err))
		if errors.Is(err, domain.ErrSessionExpired) && !route.PublicOnly() {
			return fmt.Errorf("%w, run `ascan login` again", err)
		}
	}

	redirect, ok := a.nav.take()
	if !ok || redirect == route {
		return nil
	}
	switch redirect {
	case domain.RouteLogin:
		return errLoginRequired
	case domain.RouteHome:
		return errAlreadyLoggedIn
	default:
		return fmt.Errorf("cannot open %s from %s", redirect, route)
	}
}

// currentUser returns the logged-in user, or nil when the session is not authenticated.
func (a *app) currentUser() *domain.User {
	snapshot := a.session.Snapshot()
	if !snapshot.IsAuthenticated() {
		return nil
	}
	return snapshot.User
}

// cliNavigator records the last route the session or the guard asked for.
// Commands cannot switch screens, so the route is reported back instead.
// Replacing the current route with itself is not a redirect.
type cliNavigator struct {
	mu    sync.Mutex
	route domain.Route
	set   bool
}

func (n *cliNavigator) Replace(route domain.Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.route = route
	n.set = true
}

func (n *cliNavigator) take() (domain.Route, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	route, ok := n.route, n.set
	n.route, n.set = "", false
	return route, ok
}
