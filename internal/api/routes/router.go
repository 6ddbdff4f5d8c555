package routes

import (
	"net/http"

	"github.com/justinas/alice"
	"github.com/zatekoja/propertymarket/backend/internal/api/handlers"
	"github.com/zatekoja/propertymarket/backend/internal/api/middleware"
	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/domain/repositories"
	"github.com/zatekoja/propertymarket/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	listingHandler *handlers.ListingHandler
	ratingHandler  *handlers.RatingHandler
	healthHandler  *handlers.HealthHandler
	graphql        http.Handler

	auth           *middleware.Authenticator
	ratingLimiter  *middleware.RateLimiter
	userRepo       repositories.UserRepository
	allowedOrigins []string
	metrics        *observability.Metrics
}

// Options carries the cross-cutting collaborators of the router
type Options struct {
	Auth           *middleware.Authenticator
	RatingLimiter  *middleware.RateLimiter
	UserRepo       repositories.UserRepository
	AllowedOrigins []string
	Metrics        *observability.Metrics
	// GraphQL is mounted at /graphql when set.
	GraphQL http.Handler
}

// NewRouter creates a new router
func NewRouter(
	listingHandler *handlers.ListingHandler,
	ratingHandler *handlers.RatingHandler,
	healthHandler *handlers.HealthHandler,
	opts Options,
) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		listingHandler: listingHandler,
		ratingHandler:  ratingHandler,
		healthHandler:  healthHandler,
		graphql:        opts.GraphQL,
		auth:           opts.Auth,
		ratingLimiter:  opts.RatingLimiter,
		userRepo:       opts.UserRepo,
		allowedOrigins: opts.AllowedOrigins,
		metrics:        opts.Metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	authed := alice.New(middleware.RequireAuth)
	publisher := authed.Append(middleware.RequireRole(entities.RoleAgent, entities.RoleAdmin))
	admin := authed.Append(middleware.RequireRole(entities.RoleAdmin))

	rater := authed
	if r.ratingLimiter != nil {
		rater = rater.Append(r.ratingLimiter.Middleware)
	}

	// Health
	r.mux.HandleFunc("GET /health", r.healthHandler.Live)
	r.mux.HandleFunc("GET /health/ready", r.healthHandler.Ready)

	// Listings
	r.mux.HandleFunc("GET /api/listings", r.listingHandler.SearchListings)
	r.mux.HandleFunc("GET /api/listings/search", r.listingHandler.TextSearch)
	r.mux.HandleFunc("GET /api/listings/{id}", r.listingHandler.GetListing)
	r.mux.HandleFunc("GET /api/agents/{agentId}/listings", r.listingHandler.ListAgentListings)
	r.mux.Handle("POST /api/listings", publisher.ThenFunc(r.listingHandler.CreateListing))
	r.mux.Handle("PATCH /api/listings/{id}/status", authed.ThenFunc(r.listingHandler.SetListingStatus))
	r.mux.Handle("DELETE /api/listings/{id}", authed.ThenFunc(r.listingHandler.DeleteListing))
	r.mux.Handle("PATCH /api/admin/listings/{id}/moderation", admin.ThenFunc(r.listingHandler.ModerateListing))

	// Ratings
	r.mux.Handle("POST /api/ratings", rater.ThenFunc(r.ratingHandler.SubmitRating))
	r.mux.HandleFunc("GET /api/ratings/{subjectType}/{subjectId}", r.ratingHandler.ListRatings)
	r.mux.Handle("GET /api/ratings/{subjectType}/{subjectId}/mine", authed.ThenFunc(r.ratingHandler.MyRating))
	r.mux.Handle("DELETE /api/ratings/{subjectType}/{subjectId}", authed.ThenFunc(r.ratingHandler.DeleteRating))

	if r.graphql != nil {
		r.mux.Handle("/graphql", r.graphql)
	}

	// Outermost first. Observability sits directly on the mux so the matched
	// pattern is set when it names the span.
	chain := alice.New(
		middleware.CORSMiddleware(r.allowedOrigins),
		middleware.RecoverPanic,
	)
	if r.auth != nil {
		chain = chain.Append(r.auth.Authenticate)
	}
	if r.userRepo != nil {
		chain = chain.Append(middleware.DataLoaderMiddleware(r.userRepo))
	}
	chain = chain.Append(
		middleware.LoggingMiddleware,
		middleware.ObservabilityMiddleware(r.metrics),
	)

	return chain.Then(r.mux)
}
