package main

import (
	"net/http"

	"github.com/Ntropy86/Codeforces-Calendar/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewV1Router() *chi.Mux {
	v1 := chi.NewRouter()

	v1.Get("/healthz", apiConfig.HandlerReadiness)

	// users layer
	v1.Post("/users", apiConfig.HandlerCreateUser)
	v1.Get("/users", apiConfig.HandlerGetUser)
	v1.Get("/users/streak", apiConfig.HandlerGetStreak)
	v1.Post("/users/verify-today", apiConfig.HandlerVerifyToday)

	// ledger corrections
	v1.Put("/users/streak-day", middleware.JWTMiddleware(apiConfig.HandlerSetStreakDay))
	v1.Put("/users/reset-streak-days", middleware.JWTMiddleware(apiConfig.HandlerResetStreakDays))
	v1.Put("/users/cleanup-streak-days", middleware.JWTMiddleware(apiConfig.HandlerCleanupStreakDays))
	v1.Put("/users/reconcile-streak", middleware.JWTMiddleware(apiConfig.HandlerReconcileStreak))
	v1.Put("/users/refresh-rating", middleware.JWTMiddleware(apiConfig.HandlerRefreshRating))

	// problems layer
	v1.Get("/problemset/monthly", apiConfig.HandlerGetMonthlyProblems)
	v1.Get("/problems", apiConfig.HandlerGetProblem)

	// admin layer
	v1.Post("/admin/login", apiConfig.HandlerAdminLogin)
	v1.Post("/admin/jobs/{job}", middleware.JWTMiddleware(apiConfig.HandlerTriggerJob))
	v1.Get("/admin/jobs/{job}", middleware.JWTMiddleware(apiConfig.HandlerGetJobRun))
	v1.Get("/admin/tasks/{task_id}", middleware.JWTMiddleware(apiConfig.HandlerGetTask))
	v1.Delete("/admin/tasks/{task_id}", middleware.JWTMiddleware(apiConfig.HandlerCancelTask))

	return v1
}

func metricsHandler() http.Handler {
	return middleware.BasicAuthMiddleware(cfg.MetricsUser, cfg.MetricsPass)(promhttp.Handler())
}
