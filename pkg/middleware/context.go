package middleware

import (
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/context"
)

// HeaderTenantID is the header key for tenant ID
const HeaderTenantID = "X-Tenant-ID"

func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			ctx := req.Context()
			ctx = context.SetRequestID(ctx, requestID)
			ctx = context.SetMethod(ctx, req.Method)
			ctx = context.SetRoute(ctx, req.URL.Path)
			ctx = context.SetRemoteIP(ctx, c.RealIP())
			ctx = context.SetTenantID(ctx, strings.TrimSpace(req.Header.Get(HeaderTenantID)))

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}

// RequireTenant rejects requests that carry no tenant ID
func RequireTenant() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if context.GetTenantID(c.Request().Context()) == "" {
				return httperror.NewHTTPError(http.StatusBadRequest, HeaderTenantID+" header is required")
			}
			return next(c)
		}
	}
}
