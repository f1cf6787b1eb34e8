// Package middleware provides the middleware for the Echo instance
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SetupLoggerMiddleware configures and adds middleware to the Echo instance
func SetupLoggerMiddleware(e *echo.Echo) {
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339}: ip=${remote_ip}, req=${method}, uri=${uri}, status=${status}, error=${error}, latency=${latency_human}\n",
	}))
	e.Use(middleware.Recover())
}

// SetupCORSMiddleware reflects allow-listed origins and allows the session cookie
func SetupCORSMiddleware(e *echo.Echo, origins []string) {
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
}

// SetupTimeoutMiddleware bounds the request context, and with it every
// storage call, to timeout. Long-lived streams are exempt.
func SetupTimeoutMiddleware(e *echo.Echo, timeout time.Duration, streamPaths ...string) {
	e.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
		Skipper: func(c echo.Context) bool {
			for _, p := range streamPaths {
				if c.Request().URL.Path == p {
					return true
				}
			}
			return false
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return err
		},
		Timeout: timeout,
	}))
}

// SetupStaticMiddleware serves the frontend bundle from root with an
// index.html fallback. Paths under /api are never served from disk.
func SetupStaticMiddleware(e *echo.Echo, root string) {
	e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/api")
		},
		Root:  root,
		Index: "index.html",
		HTML5: true,
	}))
}
