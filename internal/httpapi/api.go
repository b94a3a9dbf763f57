package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/google/uuid"

	"myace.ai/api/spec"
	"myace.ai/internal/auth"
	"myace.ai/internal/obs"
)

// ReadyProbe reports whether the service can take traffic (DB reachable).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Deps carries the wired domain services the API serves.
type Deps struct {
	Codec       *auth.TokenCodec
	Extractor   *auth.Extractor
	Engine      *auth.Engine
	Users       auth.UserStore
	Enterprises auth.EnterpriseStore
	Invitations auth.InvitationStore
	Members     auth.MemberStore

	// ServerPassword gates staff registration. Checked in constant time
	// before any account row is written.
	ServerPassword string
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	codec       *auth.TokenCodec
	extractor   *auth.Extractor
	engine      *auth.Engine
	users       auth.UserStore
	enterprises auth.EnterpriseStore
	invitations auth.InvitationStore
	members     auth.MemberStore

	serverPassword string
}

func New(rp ReadyProbe, version string, deps Deps) *API {
	a := &API{
		mux:            http.NewServeMux(),
		readyProbe:     rp,
		version:        version,
		codec:          deps.Codec,
		extractor:      deps.Extractor,
		engine:         deps.Engine,
		users:          deps.Users,
		enterprises:    deps.Enterprises,
		invitations:    deps.Invitations,
		members:        deps.Members,
		serverPassword: deps.ServerPassword,
	}

	// health/ready
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// API documentation (staff only)
	a.mux.HandleFunc("/docs", a.handleDocs)
	a.mux.HandleFunc("/openapi.yaml", a.handleOpenAPISpec)

	// accounts and sessions
	a.mux.HandleFunc("/login", a.handleLogin)
	a.mux.HandleFunc("/users", a.handleRegister)
	a.mux.HandleFunc("/users/team", a.handleRegisterTeamMember)
	a.mux.HandleFunc("/users/me", a.handleMe)
	a.mux.HandleFunc("/users/me/invitations", a.handleMyInvitations)
	a.mux.HandleFunc("/users/", a.handleUserByID)
	a.mux.HandleFunc("/usernames/", a.handleUsernameCheck)

	// enterprises and everything scoped under them
	a.mux.HandleFunc("/enterprises", a.handleEnterprises)
	a.mux.HandleFunc("/enterprises/", a.handleEnterpriseScoped)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped handler for the server.
func (a *API) Handler() http.Handler {
	h := http.Handler(a.mux)
	h = RateLimit(h, 50, 25)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "myace-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) handleDocs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	caller, ok := a.identify(w, r)
	if !ok {
		return
	}
	if !a.authorize(w, r, caller, auth.ViewAPIDocs{}) {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(spec.DocsPage)
}

func (a *API) handleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	caller, ok := a.identify(w, r)
	if !ok {
		return
	}
	if !a.authorize(w, r, caller, auth.ViewAPIDocs{}) {
		return
	}
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	_, _ = w.Write(spec.OpenAPI)
}

// identify resolves the caller's identity or writes a 401.
func (a *API) identify(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	caller, err := a.extractor.Require(r)
	if err != nil {
		writeDomainError(w, r, err)
		return uuid.Nil, false
	}
	return caller, true
}

// authorize runs a permission check and writes the mapped error on denial.
func (a *API) authorize(w http.ResponseWriter, r *http.Request, caller uuid.UUID, action auth.Action) bool {
	if err := a.engine.Check(r.Context(), caller, action); err != nil {
		writeDomainError(w, r, err)
		return false
	}
	return true
}

// withIdentity threads the caller through the request context for audit lines.
func withIdentity(r *http.Request, caller uuid.UUID) *http.Request {
	return r.WithContext(auth.ContextWithIdentity(r.Context(), caller))
}
