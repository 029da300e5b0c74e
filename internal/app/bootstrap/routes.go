// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	auditfeature "github.com/dalemusser/trackhub/internal/app/features/auditlog"
	errorsfeature "github.com/dalemusser/trackhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/trackhub/internal/app/features/health"
	loginfeature "github.com/dalemusser/trackhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/trackhub/internal/app/features/logout"
	projectsfeature "github.com/dalemusser/trackhub/internal/app/features/projects"
	registerfeature "github.com/dalemusser/trackhub/internal/app/features/register"
	tasksfeature "github.com/dalemusser/trackhub/internal/app/features/tasks"
	userstore "github.com/dalemusser/trackhub/internal/app/store/users"
	"github.com/dalemusser/trackhub/internal/app/system/auth"
	"github.com/dalemusser/trackhub/internal/app/system/paging"
	"github.com/dalemusser/trackhub/internal/app/system/ratelimit"
	"github.com/dalemusser/trackhub/internal/app/system/routeperm"
	"github.com/dalemusser/trackhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// Version is reported by /health. Set at build time with
// -ldflags "-X github.com/dalemusser/trackhub/internal/app/bootstrap.Version=…".
var Version = "dev"

const devCSRFKey = "dev-only-csrf-key-0123456789abcd"

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed.
//
// TrackHub initializes the template engine, applies session and CSRF
// middleware, and mounts the feature routers: accounts, tasks, projects and the audit log.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// LoadSessionUser re-reads the user on each request so group changes
	// take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	perms, err := routeperm.Load(appCfg.RouteGroupsFile)
	if err != nil {
		logger.Error("route groups load failed", zap.String("file", appCfg.RouteGroupsFile), zap.Error(err))
		return nil, err
	}
	if appCfg.RouteGroupsFile != "" {
		logger.Info("route groups override loaded", zap.String("file", appCfg.RouteGroupsFile))
	}

	vocab := models.TaskVocab{Statuses: appCfg.TaskStatuses, Types: appCfg.TaskTypes}
	pager := paging.New(appCfg.TasksPerPage, appCfg.TasksOrphans)
	limiter := ratelimit.NewLoginLimiter(appCfg.LoginRateLimit)
	auditLog := newAuditLogger(appCfg, deps.MongoDatabase, logger)
	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()

	// Client addresses feed the login limiter and audit records. Forwarding
	// headers are honoured only when a trusted proxy sets them.
	if appCfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
		logger.Info("trusting proxy headers for client addresses")
	}

	// Health check endpoint for load balancers; outside CSRF and sessions.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, Version, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	r.Group(func(r chi.Router) {
		r.Use(csrfMiddleware(appCfg, secure)...)

		// Global auth middleware: loads SessionUser into context if logged in.
		r.Use(sessionMgr.LoadSessionUser)

		// Accounts
		loginHandler := loginfeature.NewHandler(deps.MongoDatabase, sessionMgr, errLog, auditLog, limiter, logger)
		r.Mount("/accounts", loginfeature.Routes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
		r.Mount("/accounts/logout", logoutfeature.Routes(logoutHandler))

		registerHandler := registerfeature.NewHandler(deps.MongoDatabase, sessionMgr, errLog, auditLog, logger)
		r.Mount("/accounts/register", registerfeature.Routes(registerHandler))

		// Error pages
		errorsHandler := errorsfeature.NewHandler()
		r.Get("/forbidden", errorsHandler.Forbidden)
		r.Get("/unauthorized", errorsHandler.Unauthorized)

		// Tasks: the list is the home page.
		taskHandler := tasksfeature.NewHandler(deps.MongoDatabase, perms, vocab, pager, errLog, auditLog, logger)
		r.Get("/", taskHandler.ServeList)
		r.Mount("/task", tasksfeature.Routes(taskHandler))

		// Projects, with task creation nested under a project.
		projectHandler := projectsfeature.NewHandler(deps.MongoDatabase, perms, appCfg.AutoJoinProjectCreator, errLog, auditLog, logger)
		projectRouter := projectsfeature.Routes(projectHandler)
		projectRouter.Mount("/{id}/task", tasksfeature.CreateRoutes(taskHandler))
		r.Mount("/project", projectRouter)

		// Audit trail for Project Managers; anonymous visitors go straight to login.
		auditHandler := auditfeature.NewHandler(deps.MongoDatabase, perms, errLog, logger)
		r.With(sessionMgr.RequireSignedIn).Mount("/audit", auditfeature.Routes(auditHandler))

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			errorsfeature.RenderNotFound(w, r, "", "/")
		})
	})

	return r, nil
}

// csrfMiddleware protects every unsafe request. Outside prod requests
// arriving without TLS are marked plaintext so the origin check matches.
func csrfMiddleware(appCfg AppConfig, secure bool) []func(http.Handler) http.Handler {
	key := appCfg.CSRFKey
	if key == "" {
		key = devCSRFKey
	}
	protect := csrf.Protect([]byte(key),
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			errorsfeature.RenderForbidden(w, r, "Your form expired or could not be verified. Please go back and try again.", "")
		})),
	)
	if secure {
		return []func(http.Handler) http.Handler{protect}
	}
	plaintext := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS == nil {
				r = csrf.PlaintextHTTPRequest(r)
			}
			next.ServeHTTP(w, r)
		})
	}
	return []func(http.Handler) http.Handler{plaintext, protect}
}
