package middleware

import "github.com/labstack/echo/v4"

// Skipper decides whether a middleware should pass the request through.
type Skipper func(c echo.Context) bool

// DefaultSkipper skips nothing.
func DefaultSkipper(echo.Context) bool {
	return false
}

// Logger is the subset of a structured logger the middleware needs.
type Logger interface {
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}
