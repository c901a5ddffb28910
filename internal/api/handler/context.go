package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/identity-service/internal/core/session"
)

// requestContext returns the request's context.Context, annotated with the
// request id and client address for the audit trail.
func requestContext(c echo.Context) context.Context {
	ctx := c.Request().Context()
	if meta := session.RequestMetaFrom(ctx); meta.RequestID != "" {
		return ctx
	}

	reqID := c.Response().Header().Get(echo.HeaderXRequestID)
	if reqID == "" {
		reqID = c.Request().Header.Get(echo.HeaderXRequestID)
	}
	return session.WithRequestMeta(ctx, session.RequestMeta{
		RequestID:  reqID,
		RemoteAddr: c.RealIP(),
	})
}
