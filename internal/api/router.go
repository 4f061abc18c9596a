// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/trypzy/backend/internal/api/handlers"
	"github.com/trypzy/backend/internal/api/middleware"
	"github.com/trypzy/backend/internal/metrics"
	"github.com/trypzy/backend/internal/websocket"
)

// Options wires the router to its collaborators.
type Options struct {
	DB      handlers.Pinger
	Hub     *websocket.Hub
	Deps    *handlers.Deps
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	// JWTSecret enables bearer-token authentication when set.
	JWTSecret   string
	CORSOrigins []string
}

// NewRouter creates and configures the HTTP handler with all API routes.
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging(logger))
	r.Use(middleware.ErrorRecovery(logger))
	if opts.Metrics != nil {
		r.Use(middleware.Metrics(opts.Metrics))
	}

	// API subrouter
	api := r.PathPrefix("/api").Subrouter()

	var clients handlers.ClientCounter
	if opts.Hub != nil {
		clients = opts.Hub
	}

	// Health and metrics endpoints
	api.HandleFunc("/health", handlers.HealthCheck(opts.DB, clients)).Methods("GET")
	if opts.Metrics != nil {
		api.Handle("/metrics", opts.Metrics.Handler()).Methods("GET")
	}

	authed := api.NewRoute().Subrouter()
	authed.Use(middleware.Auth(opts.JWTSecret))

	// WebSocket endpoint
	authed.HandleFunc("/ws", handlers.WebSocketUpgrade(opts.Hub, logger)).Methods("GET")

	// Schedule endpoints
	d := opts.Deps
	trip := authed.PathPrefix("/trips/{tripId}").Subrouter()
	trip.HandleFunc("/schedule", handlers.GetSchedule(d)).Methods("GET")
	trip.HandleFunc("/schedule/insight", handlers.ScheduleInsight(d)).Methods("GET")
	trip.HandleFunc("/schedule/calendar.ics", handlers.ScheduleCalendar(d)).Methods("GET")
	trip.HandleFunc("/windows", handlers.CreateWindow(d)).Methods("POST")
	trip.HandleFunc("/windows/{windowId}", handlers.DeleteWindow(d)).Methods("DELETE")
	trip.HandleFunc("/windows/{windowId}/support", handlers.AddSupport(d)).Methods("POST")
	trip.HandleFunc("/windows/{windowId}/support", handlers.RemoveSupport(d)).Methods("DELETE")
	trip.HandleFunc("/proposal", handlers.Propose(d)).Methods("POST")
	trip.HandleFunc("/proposal/withdraw", handlers.Withdraw(d)).Methods("POST")
	trip.HandleFunc("/reactions", handlers.React(d)).Methods("POST")
	trip.HandleFunc("/lock", handlers.Lock(d)).Methods("POST")

	c := cors.New(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.UserIDHeader},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
