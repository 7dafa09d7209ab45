// Package router wires HTTP routes to handlers and their middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/workodr/marketplace-api/internal/config"
	"github.com/workodr/marketplace-api/internal/handler"
	"github.com/workodr/marketplace-api/internal/middleware"
	"github.com/workodr/marketplace-api/internal/model"
	"github.com/workodr/marketplace-api/internal/repository"
)

// Deps carries everything route registration needs.
type Deps struct {
	Cfg         config.Config
	Log         zerolog.Logger
	Redis       *redis.Client
	RateLimit   config.RateLimitConfig
	Cache       config.CacheConfig
	Tokens      *repository.TokenRepo
	Auth        *handler.AuthHandler
	JobOrders   *handler.JobOrderHandler
	WorkOrders  *handler.WorkOrderHandler
	Assignments *handler.AssignmentHandler
	WorkPlans   *handler.WorkPlanHandler
	Invoices    *handler.InvoiceHandler
}

// Register mounts all routes on the Echo instance.  Public auth endpoints
// sit behind the rate limiter; everything under the protected group runs the
// two-stage token check (signature, then ledger).
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	requireAuth := middleware.RequireAuth(d.Cfg.JWTSecret, d.Tokens)
	optionalAuth := middleware.OptionalAuth(d.Cfg.JWTSecret, d.Tokens)
	limited := middleware.RateLimit(d.RateLimit, d.Redis, d.Log)

	// Credential endpoints: public, rate limited.
	g := e.Group("/v1/auth", limited)
	g.POST("/register", d.Auth.Register)
	g.POST("/login", d.Auth.Login)
	g.POST("/google-login", d.Auth.GoogleLogin)
	g.POST("/logout", d.Auth.Logout)
	g.POST("/request-password-reset", d.Auth.RequestPasswordReset)
	g.POST("/reset-password", d.Auth.ResetPassword)

	// Session endpoints: need a live token.
	s := e.Group("/v1/auth", requireAuth)
	s.GET("/me", d.Auth.Me)
	s.POST("/change-password", d.Auth.ChangePassword)

	// Agent-side job postings.
	agent := e.Group("/v1", requireAuth, middleware.RequireRole(model.RoleAgent, model.RoleAdmin))
	agent.POST("/job-orders", d.JobOrders.Create)
	agent.GET("/job-orders", d.JobOrders.ListMine)
	agent.PUT("/job-orders/:id", d.JobOrders.Update)
	agent.DELETE("/job-orders/:id", d.JobOrders.Delete)
	agent.GET("/job-orders/:id/work-orders", d.WorkOrders.ListForJobOrder)
	agent.PATCH("/work-orders/:id", d.WorkOrders.Decide)
	agent.GET("/invoices/received", d.Invoices.ListReceived)

	// Contractor-side applications, work plans and billing.
	contractor := e.Group("/v1", requireAuth, middleware.RequireRole(model.RoleContractor, model.RoleAdmin))
	contractor.POST("/work-orders", d.WorkOrders.Apply)
	contractor.GET("/work-orders", d.WorkOrders.ListMine)
	contractor.POST("/work-plans", d.WorkPlans.Create)
	contractor.GET("/work-plans", d.WorkPlans.ListMine)
	contractor.PUT("/work-plans/:id", d.WorkPlans.Update)
	contractor.POST("/invoices", d.Invoices.Create)
	contractor.GET("/invoices", d.Invoices.ListMine)

	// Assignments: read by both sides, access resolved per record.
	assignments := e.Group("/v1/assignments", requireAuth)
	assignments.GET("", d.Assignments.ListMine)
	assignments.GET("/:id", d.Assignments.Get)
	assignments.GET("/:id/work-plan", d.WorkPlans.GetByAssignment)

	// Mixed public/authenticated browse; the open listing serves the same
	// payload to everyone, so it sits behind the response cache.
	cached := middleware.ResponseCache(d.Cache, d.Redis, d.Log)
	e.GET("/v1/job-orders/open", d.JobOrders.ListOpen, optionalAuth, cached)
	e.GET("/v1/job-orders/:id", d.JobOrders.Get, requireAuth)
}
