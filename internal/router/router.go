package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/cache"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/config"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/database"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/enum"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/handler"
	mw "github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/middleware"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/service"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub, reportCache cache.ReportCache) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",         // SvelteKit dev server
			"https://admin.connect-ind.com", // Production back office
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Sales: the transaction builder plus invoice reads
		newSaleStore := func(db database.DBTX) service.SaleStore {
			return database.New(db)
		}
		saleService := service.NewSaleService(pool, queries, newSaleStore)
		saleHandler := handler.NewSaleHandler(saleService, queries, hub)
		r.Route("/sales", saleHandler.RegisterRoutes)

		// Stock
		unitHandler := handler.NewUnitHandler(queries)
		r.Route("/units", unitHandler.RegisterRoutes)

		accessoryHandler := handler.NewAccessoryHandler(queries)
		r.Route("/accessories", accessoryHandler.RegisterRoutes)

		// Customers
		customerHandler := handler.NewCustomerHandler(queries)
		r.Route("/customers", customerHandler.RegisterRoutes)

		// Warranty claims
		warrantyHandler := handler.NewWarrantyHandler(queries, hub)
		r.Route("/warranty", warrantyHandler.RegisterRoutes)

		// Indents (pre-orders)
		indentHandler := handler.NewIndentHandler(queries)
		r.Route("/indents", indentHandler.RegisterRoutes)

		// Attendance
		attendanceHandler := handler.NewAttendanceHandler(queries)
		r.Route("/attendance", attendanceHandler.RegisterRoutes)

		// Owner/admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleOwner, enum.UserRoleAdmin))

			userHandler := handler.NewUserHandler(queries)
			r.Route("/users", userHandler.RegisterRoutes)

			reportHandler := handler.NewReportHandler(queries, reportCache)
			r.Route("/reports", reportHandler.RegisterRoutes)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
