// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// NewHealthCheck creates a Fiber healthcheck middleware with Kubernetes-style endpoints.
//
// Endpoints:
//   - GET /livez  - Liveness probe (app is running)
//   - GET /readyz - Readiness probe (app is ready to serve: Postgres and the
//     lease store both reachable)
//
// This middleware should be registered BEFORE other routes.
func NewHealthCheck(db *gorm.DB, rdb *redis.Client) fiber.Handler {
	return healthcheck.New(healthcheck.Config{
		// Liveness probe - is the application running?
		LivenessEndpoint: "/livez",
		LivenessProbe: func(_ *fiber.Ctx) bool {
			return true // Always return true if the app is running
		},

		// Readiness probe - is the application ready to serve traffic?
		// Without the lease store, ensure could only ever answer "locked",
		// so a node that lost Redis must not take traffic.
		ReadinessEndpoint: "/readyz",
		ReadinessProbe: func(c *fiber.Ctx) bool {
			if db == nil || rdb == nil {
				return false
			}
			sqlDB, err := db.DB()
			if err != nil || sqlDB.Ping() != nil {
				return false
			}

			return rdb.Ping(c.Context()).Err() == nil
		},
	})
}
