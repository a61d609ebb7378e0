package api

import (
	"net/http"
	"time"

	"fcmanager/internal/api/handler"
	"fcmanager/internal/app/service"
	"fcmanager/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	accountService *service.AccountService,
	profileService *service.ProfileService,
	taskService *service.TaskService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Verifies the bearer token when present and puts claims in context;
	// the Authenticator middleware on protected groups enforces it.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler := handler.NewAuthHandler(authService)
		v1.Route("/auth", authHandler.RegisterRoutes)

		accountHandler := handler.NewAccountHandler(accountService)
		v1.Route("/accounts", accountHandler.RegisterRoutes)

		profileHandler := handler.NewProfileHandler(profileService, accountService)
		v1.Route("/profile", profileHandler.RegisterRoutes)

		taskHandler := handler.NewTaskHandler(taskService, accountService)
		v1.Route("/tasks", taskHandler.RegisterRoutes)
	})

	return r
}
