package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ZapLogger logs every request through the global zap logger.
func ZapLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			res := c.Response()

			err := next(c)
			if err != nil {
				// let the error handler write the status before logging it
				c.Error(err)
			}

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.Int("status", res.Status),
				zap.Int64("bytes_out", res.Size),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_ip", c.RealIP()),
			}
			if reqID := res.Header().Get(echo.HeaderXRequestID); reqID != "" {
				fields = append(fields, zap.String("request_id", reqID))
			}
			if claims := Claims(c); claims != nil {
				fields = append(fields, zap.String("owner", claims.Email))
			}

			switch {
			case err != nil:
				zap.L().Error("Request failed", append(fields, zap.Error(err))...)
			case res.Status >= 500:
				zap.L().Error("Server error", fields...)
			case res.Status >= 400:
				zap.L().Warn("Client error", fields...)
			default:
				zap.L().Info("Request completed", fields...)
			}
			return nil
		}
	}
}
