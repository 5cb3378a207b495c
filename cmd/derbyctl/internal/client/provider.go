package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jeremysavoy/derby-director/cmd/derbyctl/internal/auth"
	"github.com/jeremysavoy/derby-director/pkg/sdk"
)

// Options configures a Provider.
type Options struct {
	APIURL        string
	Store         auth.StoreOptions
	EnforceExpiry bool
	LoginView     string
	HomeView      string
	Logger        hclog.Logger
	Metrics       *sdk.Metrics
}

// Provider lazily builds the credential store, session, router and SDK
// client for one CLI invocation.
type Provider struct {
	opts        Options
	bearerToken string // ephemeral token that bypasses the credential store

	storeOnce sync.Once
	store     auth.Store
	storeErr  error

	sessionOnce sync.Once
	session     *sdk.Session

	routerOnce sync.Once
	routerErr  error

	mu     sync.Mutex
	router *sdk.Router

	sdkOnce   sync.Once
	gateway   *sdk.Gateway
	sdkClient *sdk.Client
}

// NewProvider constructs a new Provider.
func NewProvider(opts Options) *Provider {
	if opts.APIURL == "" {
		opts.APIURL = sdk.DefaultAPIURL
	}
	if opts.LoginView == "" {
		opts.LoginView = sdk.DefaultLoginPath
	}
	if opts.HomeView == "" {
		opts.HomeView = sdk.DefaultHomePath
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	return &Provider{opts: opts}
}

// APIURL returns the API base URL the provider talks to.
func (p *Provider) APIURL() string { return p.opts.APIURL }

// SetBearerToken injects an ephemeral bearer token (CI, scripts). The token
// lives in memory only and never touches the configured store. Must be called
// before the first Store or Session call.
func (p *Provider) SetBearerToken(token string) {
	p.bearerToken = token
}

// Store opens the configured credential store once.
func (p *Provider) Store() (auth.Store, error) {
	p.storeOnce.Do(func() {
		if p.bearerToken != "" {
			store, _ := auth.OpenStore(auth.StoreOptions{Kind: auth.StoreMemory})
			if err := store.Set(context.Background(), sdk.TokenKey, p.bearerToken); err != nil {
				p.storeErr = err
				return
			}
			p.store = store
			return
		}

		store, err := auth.OpenStore(p.opts.Store)
		if err != nil {
			p.storeErr = fmt.Errorf("failed to open credential store: %w", err)
			return
		}
		p.store = store
	})

	if p.storeErr != nil {
		return nil, p.storeErr
	}
	return p.store, nil
}

// Session returns the initialized auth session. A stored credential that no
// longer decodes is purged and the session starts anonymous.
func (p *Provider) Session(ctx context.Context) (*sdk.Session, error) {
	store, err := p.Store()
	if err != nil {
		return nil, err
	}

	p.sessionOnce.Do(func() {
		authClient := sdk.NewAuthClient(p.opts.APIURL)
		p.session = sdk.NewSession(store, authClient,
			sdk.WithNavigator(sdk.NavigatorFunc(p.redirect)),
			sdk.WithLogger(p.opts.Logger.Named("session")),
			sdk.WithMetrics(p.opts.Metrics),
			sdk.WithLoginView(p.opts.LoginView),
			sdk.WithExpiryEnforcement(p.opts.EnforceExpiry),
		)

		ctx, cancel := ensureTimeout(ctx, 5*time.Second)
		defer cancel()
		p.session.Initialize(ctx)
	})

	return p.session, nil
}

// Router returns the view router guarded by the session.
func (p *Provider) Router(ctx context.Context) (*sdk.Router, error) {
	session, err := p.Session(ctx)
	if err != nil {
		return nil, err
	}

	p.routerOnce.Do(func() {
		guard := sdk.NewGuard(session, sdk.WithGuardPaths(p.opts.LoginView, p.opts.HomeView))
		router, err := sdk.NewRouter(guard, sdk.DefaultRoutes(), p.opts.Logger.Named("router"))
		if err != nil {
			p.routerErr = err
			return
		}
		p.mu.Lock()
		p.router = router
		p.mu.Unlock()
	})

	if p.routerErr != nil {
		return nil, p.routerErr
	}
	return p.router, nil
}

// Gateway returns the request gateway bound to the session.
func (p *Provider) Gateway(ctx context.Context) (*sdk.Gateway, error) {
	if _, err := p.SDKClient(ctx); err != nil {
		return nil, err
	}
	return p.gateway, nil
}

// SDKClient returns the typed API client.
func (p *Provider) SDKClient(ctx context.Context) (*sdk.Client, error) {
	session, err := p.Session(ctx)
	if err != nil {
		return nil, err
	}

	p.sdkOnce.Do(func() {
		p.gateway = sdk.NewGateway(p.opts.APIURL, session,
			sdk.WithGatewayLogger(p.opts.Logger.Named("gateway")),
			sdk.WithGatewayMetrics(p.opts.Metrics),
		)
		p.sdkClient = sdk.NewClient(p.gateway)
	})

	return p.sdkClient, nil
}

// Close releases the credential store.
func (p *Provider) Close() error {
	if p.store == nil {
		return nil
	}
	return p.store.Close()
}

// redirect is the session's navigator. Before a router exists there is no
// current view to move, so the request is only logged.
func (p *Provider) redirect(path string) {
	p.mu.Lock()
	router := p.router
	p.mu.Unlock()

	p.opts.Logger.Debug("session redirect", "path", path, "router", router != nil)
	if router != nil {
		router.Redirect(path)
	}
}

func ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}

	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, timeout)
}
