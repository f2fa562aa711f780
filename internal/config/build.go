package config

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/spf13/viper"

	"github.com/agentstation/catalogsync"
	"github.com/agentstation/catalogsync/internal/adminapi"
	"github.com/agentstation/catalogsync/pkg/constants"
	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/feed"
	"github.com/agentstation/catalogsync/pkg/history"
	"github.com/agentstation/catalogsync/pkg/history/files"
	"github.com/agentstation/catalogsync/pkg/history/memory"
	"github.com/agentstation/catalogsync/pkg/history/pgkv"
	"github.com/agentstation/catalogsync/pkg/history/rediskv"
)

// Resources owns the connections opened while building tenants. Tenants
// with identical history settings share one store.
type Resources struct {
	stores  map[HistoryConfig]history.Store
	closers []func() error
}

// Close releases every opened connection.
func (r *Resources) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	r.closers = nil
	return stderrors.Join(errs...)
}

// BuildTenants turns the configured tenants into engine tenants. On error
// anything already opened is closed.
func BuildTenants(ctx context.Context, v *viper.Viper, cfg *Config, hc *http.Client) ([]catalogsync.Tenant, *Resources, error) {
	res := &Resources{stores: make(map[HistoryConfig]history.Store)}
	tenants := make([]catalogsync.Tenant, 0, len(cfg.Tenants))
	for _, tc := range cfg.Tenants {
		t, err := res.tenant(ctx, v, tc, hc)
		if err != nil {
			_ = res.Close()
			return nil, nil, errors.WrapResource("build", "tenant", tc.ID, err)
		}
		tenants = append(tenants, t)
	}
	return tenants, res, nil
}

func (r *Resources) tenant(ctx context.Context, v *viper.Viper, tc TenantConfig, hc *http.Client) (catalogsync.Tenant, error) {
	token, err := Secret(v, tc.TokenEnv)
	if err != nil {
		return catalogsync.Tenant{}, err
	}
	src, err := tc.FeedSource(v)
	if err != nil {
		return catalogsync.Tenant{}, err
	}
	store, err := r.History(ctx, tc.History)
	if err != nil {
		return catalogsync.Tenant{}, err
	}

	rps := tc.RateLimit
	if rps == 0 {
		rps = constants.DefaultRateLimit
	}

	return catalogsync.Tenant{
		ID: tc.ID,
		Catalog: adminapi.New(tc.AdminURL, token,
			adminapi.WithHTTPClient(hc),
			adminapi.WithTokenHeader(tc.TokenHeader),
			adminapi.WithRateLimit(rps, constants.BurstSize)),
		History: store,
		Feed:    src,
	}, nil
}

// FeedSource resolves the tenant's feed location and credentials.
func (tc TenantConfig) FeedSource(v *viper.Viper) (feed.Source, error) {
	auth, err := Secret(v, tc.Feed.AuthEnv)
	if err != nil {
		return feed.Source{}, err
	}
	src := feed.Source{URL: tc.Feed.URL, AuthHeader: tc.Feed.AuthHeader, AuthValue: auth}
	if tc.Feed.Delimiter != "" {
		src.Delimiter = []rune(tc.Feed.Delimiter)[0]
	}
	return src, nil
}

// History opens the store described by hc, reusing one opened earlier
// with the same settings.
func (r *Resources) History(ctx context.Context, hc HistoryConfig) (history.Store, error) {
	if r.stores == nil {
		r.stores = make(map[HistoryConfig]history.Store)
	}
	if s, ok := r.stores[hc]; ok {
		return s, nil
	}

	var store history.Store
	switch hc.Backend {
	case BackendMemory:
		store = memory.New()
	case "", BackendFiles:
		path := hc.Path
		if path == "" {
			path = constants.DefaultHistoryPath
		}
		s, err := files.New(path)
		if err != nil {
			return nil, err
		}
		store = s
	case BackendRedis:
		rdb, err := rediskv.Connect(ctx, hc.URL)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, rdb.Close)
		store = rediskv.New(rdb, hc.Namespace)
	case BackendPostgres:
		pool, err := pgkv.Pool(ctx, hc.DSN)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, func() error { pool.Close(); return nil })
		s := pgkv.New(pool, hc.Table)
		if err := s.Migrate(ctx); err != nil {
			return nil, err
		}
		store = s
	default:
		return nil, errors.NewValidationError("history.backend", hc.Backend, "unknown history backend")
	}

	r.stores[hc] = store
	return store, nil
}
