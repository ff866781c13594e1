// Package httpapi exposes the compliance service over HTTP JSON.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"datenwacht.org/internal/auth"
	"datenwacht.org/internal/inventory"
	"datenwacht.org/internal/obs"
	"datenwacht.org/internal/policy"
)

// ReadyProbe reports readiness, pinging the database when one is wired.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	inv      *inventory.Service
	policies *policy.Service
	dir      auth.Directory

	rateBurst  int
	ratePerSec int
}

// Option configures API construction.
type Option func(*API)

// WithRateLimit overrides the per-IP request quota.
func WithRateLimit(burst, perSecond int) Option {
	return func(a *API) {
		a.rateBurst = burst
		a.ratePerSec = perSecond
	}
}

func New(rp ReadyProbe, version string, inv *inventory.Service, policies *policy.Service, dir auth.Directory, opts ...Option) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		inv:        inv,
		policies:   policies,
		dir:        dir,
		rateBurst:  20,
		ratePerSec: 10,
	}
	for _, opt := range opts {
		opt(a)
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// auth
	a.mux.HandleFunc("/v1/auth/token", a.handleAuthToken)

	// organizations
	a.mux.HandleFunc("/v1/organizations", a.handleOrganizations)
	a.mux.HandleFunc("/v1/organizations/", a.handleOrganizationResource)

	// inventory
	a.mux.HandleFunc("/v1/data-inventory/sources", a.handleSources)
	a.mux.HandleFunc("/v1/data-inventory/assets", a.handleAssets)
	a.mux.HandleFunc("/v1/data-inventory/classifications", a.handleClassifications)
	a.mux.HandleFunc("/v1/data-inventory/flows", a.handleFlows)
	a.mux.HandleFunc("/v1/data-inventory/audit-logs", a.handleAuditLogs)
	a.mux.HandleFunc("/v1/data-inventory/scan", a.handleScan)

	// AI
	a.mux.HandleFunc("/v1/ai/privacy-policy", a.handlePrivacyPolicy)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the full middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}
