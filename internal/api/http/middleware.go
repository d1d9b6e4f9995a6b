package http

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/spec-kit/support-intake/internal/observability"
	apperrors "github.com/spec-kit/support-intake/pkg/util"
)

// allowedOrigins lists the widget host origins plus Teams and local dev.
var allowedOrigins = []string{
	"https://sdo.acidni.net",
	"https://terprint.acidni.net",
	"https://solar.acidni.net",
	"https://gridsight.acidni.net",
	"https://flwm.acidni.net",
	"https://mobilemech.acidni.net",
	"https://donate.acidni.net",
	"https://textatruck.acidni.net",
	"https://minecraft.acidni.net",
	"https://www.cdes.world",
	"https://sales.terprint.com",
	"https://sales.solar.acidni.net",
	"https://sales.gridsight.acidni.net",
	"https://support.acidni.net",
	"https://teams.microsoft.com",
	"http://localhost:3000",
	"http://localhost:5000",
	"http://localhost:7146",
	"http://127.0.0.1:7146",
}

// RegisterMiddlewares attaches global middlewares: CORS, request timeout,
// error handling and request logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(allowedOrigins, ","),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Content-Type,Ocp-Apim-Subscription-Key,X-User-Email,X-App-Id",
		AllowCredentials: true,
	}))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandlingMiddleware is the outermost error boundary: every error or
// panic becomes the JSON error envelope with no leaked internals.
func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				if metrics != nil {
					metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				}
				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}

// toDomainError also maps fiber's own routing errors (404, 405) so an
// unmatched path is not reported as an internal error.
func toDomainError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) && fiberErr.Code < 500 {
		return &apperrors.DomainError{
			Code:       "REQUEST_FAILED",
			Message:    fiberErr.Message,
			HTTPStatus: fiberErr.Code,
		}
	}
	return apperrors.ToDomainError(err)
}
