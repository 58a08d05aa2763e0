package router

import (
	"net/http"

	"github.com/agni-pos/api/internal/billing"
	"github.com/agni-pos/api/internal/config"
	"github.com/agni-pos/api/internal/database"
	"github.com/agni-pos/api/internal/enum"
	"github.com/agni-pos/api/internal/handler"
	mw "github.com/agni-pos/api/internal/middleware"
	"github.com/agni-pos/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Deps carries the shared application state the routes close over.
type Deps struct {
	Config *config.Config
	Pool   *pgxpool.Pool
	Ledger *billing.Ledger
	Engine *billing.Engine
	Hub    *ws.Hub
}

// New creates a Chi router with all application routes wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	catalog := database.NewCatalogStore(d.Pool)
	users := database.NewUsersStore(d.Pool)
	expenses := database.NewExpensesStore(d.Pool)
	reports := database.NewReportsStore(d.Pool)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	authHandler := handler.NewAuthHandler(users, d.Config.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/billing", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(d.Hub, d.Config.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(d.Config.JWTSecret))

		catalogHandler := handler.NewCatalogHandler(catalog)
		r.Route("/items", catalogHandler.RegisterRoutes)

		staffHandler := handler.NewStaffHandler(catalog)
		r.Route("/staff", staffHandler.RegisterRoutes)

		tableHandler := handler.NewTableHandler(d.Ledger, catalog)
		r.Route("/tables", tableHandler.RegisterRoutes)

		billHandler := handler.NewBillHandler(d.Engine, d.Hub)
		billHandler.RegisterRoutes(r)

		expenseHandler := handler.NewExpenseHandler(expenses)
		r.Route("/expenses", expenseHandler.RegisterRoutes)

		// Manager-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleManager))

			r.Route("/manage/items", catalogHandler.RegisterManageRoutes)
			r.Route("/manage/staff", staffHandler.RegisterManageRoutes)

			userHandler := handler.NewUserHandler(users)
			r.Route("/users", userHandler.RegisterRoutes)

			reportHandler := handler.NewReportHandler(reports)
			r.Route("/reports", reportHandler.RegisterRoutes)
		})
	})

	return r
}
