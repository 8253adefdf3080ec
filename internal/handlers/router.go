package handlers

import (
	"net/http"

	"firesafety-backend/internal/auth"
	"firesafety-backend/internal/backup"
	"firesafety-backend/internal/metrics"
	"firesafety-backend/internal/middleware"
	"firesafety-backend/internal/models"
	"firesafety-backend/internal/services"
	"firesafety-backend/internal/storage"
	"firesafety-backend/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Deps are the services the API is built from. Analyzer, Notifier and Hub
// may be nil.
type Deps struct {
	Store          *storage.Store
	Tokens         *auth.TokenManager
	Verifier       auth.CredentialVerifier
	Credentials    *auth.CredentialStore
	Analyzer       services.AnalysisService
	Notifier       services.Notifier
	Backup         *backup.Service
	Hub            *websocket.Hub
	LoginLimiter   *middleware.RateLimiter
	AllowedOrigins []string
}

// NewRouter wires every endpoint.
func NewRouter(d Deps) http.Handler {
	if d.Verifier == nil {
		d.Verifier = auth.DefaultVerifier()
	}
	if d.Analyzer == nil {
		d.Analyzer = services.WithFallback(nil)
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Snapshot-Version", middleware.SessionTokenHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", Health(d.Store))
	r.Handle("/metrics", metrics.Handler())

	requireAuth := middleware.Auth(d.Tokens, d.Store)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	if d.Hub != nil {
		r.With(requireAuth).Get("/ws", websocket.HandleWebSocket(d.Hub, websocket.NewUpgrader(d.AllowedOrigins)))
	}

	r.Route("/api", func(r chi.Router) {
		// Authentication routes (no auth required)
		r.Group(func(r chi.Router) {
			if d.LoginLimiter != nil {
				r.Use(d.LoginLimiter.Middleware())
			}
			r.Post("/auth/login", Login(d.Store, d.Tokens, d.Verifier))
			if d.Credentials != nil {
				r.Post("/auth/biometric", BiometricLogin(d.Store, d.Credentials, d.Tokens))
			}
		})
		r.Get("/auth/status", Status(d.Store))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/auth/logout", Logout(d.Store))

			if d.Credentials != nil {
				r.Post("/auth/biometric/enroll", EnrollBiometric(d.Credentials))
				r.Delete("/auth/biometric", RemoveBiometric(d.Credentials))
			}

			r.Get("/snapshot", GetSnapshot(d.Store))

			r.Get("/customers", GetCustomers(d.Store))
			r.Post("/customers", CreateCustomer(d.Store))
			r.Patch("/customers/{id}", UpdateCustomer(d.Store))
			r.Post("/customers/{id}/archive", ArchiveCustomer(d.Store))
			r.Post("/customers/{id}/restore", RestoreCustomer(d.Store))

			r.Get("/extinguishers", GetExtinguishers(d.Store))
			r.Post("/extinguishers", CreateExtinguisher(d.Store))
			r.Patch("/extinguishers/{id}", UpdateExtinguisher(d.Store))
			r.Post("/extinguishers/{id}/archive", ArchiveExtinguisher(d.Store))

			r.Get("/inspections", GetInspections(d.Store))
			r.Get("/inspections/checklist/{type}", GetChecklist(d.Store))
			r.Post("/inspections", SubmitInspection(d.Store, d.Analyzer, d.Notifier))

			r.Get("/todos", GetTodos(d.Store))
			r.Post("/todos", CreateTodo(d.Store))
			r.Patch("/todos/{id}", UpdateTodo(d.Store))
			r.Delete("/todos/{id}", DeleteTodo(d.Store))

			r.Get("/export/json", Export(d.Store, models.FormatJSON))
			r.Get("/export/xlsx", Export(d.Store, models.FormatXLSX))

			r.Get("/audit", GetAuditLog(d.Store))

			// Admin routes
			r.Group(func(r chi.Router) {
				r.Use(adminOnly)

				r.Post("/audit/purge/preview", PreviewPurge(d.Store))
				r.Post("/audit/purge", PurgeAudit(d.Store))
				r.Delete("/audit/{id}", DeleteAuditEntry(d.Store))

				r.Get("/settings/dropbox", GetDropboxSettings(d.Store))
				r.Put("/settings/dropbox", PutDropboxSettings(d.Backup))
				r.Get("/settings/supabase", GetSupabaseSettings(d.Store))
				r.Put("/settings/supabase", PutSupabaseSettings(d.Backup))
				r.Put("/settings/notifications", PutNotificationSettings(d.Store))

				r.Post("/import/json", Import(d.Store, models.FormatJSON))
				r.Post("/import/xlsx", Import(d.Store, models.FormatXLSX))

				r.Post("/backup/{adapter}", PushBackup(d.Backup))
				r.Post("/backup/{adapter}/verify", VerifyBackup(d.Backup))

				r.Get("/override/{collection}/fields", GetOverrideFields(d.Store))
				r.Post("/override", ApplyOverride(d.Store))

				r.Get("/users", GetUsers(d.Store))
				r.Post("/users", CreateUser(d.Store))
			})
		})
	})

	return r
}
