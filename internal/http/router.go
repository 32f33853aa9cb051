package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authsvc "github.com/MrJamesThe3rd/subtrack/internal/auth"
	"github.com/MrJamesThe3rd/subtrack/internal/http/auth"
	"github.com/MrJamesThe3rd/subtrack/internal/http/category"
	"github.com/MrJamesThe3rd/subtrack/internal/http/expense"
)

type Options struct {
	AllowedOrigins []string
}

func New(
	opts Options,
	authSvc *authsvc.Service,
	authV1 *auth.Handler,
	expensesV1 *expense.Handler,
	categoriesV1 *category.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/api", func(r chi.Router) {
		r.Group(authV1.Routes)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(authSvc))

			authV1.ProtectedRoutes(r)

			r.Route("/recurring_expenses", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json", "application/merge-patch+json"))
				expensesV1.Routes(r)
			})

			r.Route("/recurring_categories", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json", "application/merge-patch+json"))
				categoriesV1.Routes(r)
			})
		})
	})

	return router
}
