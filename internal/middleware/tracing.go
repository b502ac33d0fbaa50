package middleware

import (
	"strconv"
	"strings"

	"confessional/internal/models"
	"confessional/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware opens a server span per request. The span is renamed to
// the matched route template once routing is done, so ids stay out of span
// names and land in attributes instead.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))

		ctx, span := observability.Tracer.Start(ctx, c.Method(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.target", c.Path()),
				attribute.String("http.client_ip", c.IP()),
				attribute.String("http.user_agent", c.Get(fiber.HeaderUserAgent)),
			),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		c.Set("X-Trace-ID", traceID)
		if requestID, ok := c.Locals("requestid").(string); ok {
			span.SetAttributes(attribute.String("request.id", requestID))
		}
		c.SetUserContext(ctx)

		err := c.Next()

		route := c.Route().Path
		span.SetName(c.Method() + " " + route)
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", c.Response().StatusCode()),
		)
		if userID, ok := c.UserContext().Value(UserIDKey).(int64); ok {
			span.SetAttributes(observability.AttrUserID.Int64(userID))
		}
		if targetType, id, ok := routeTarget(c); ok {
			span.SetAttributes(observability.TargetAttributes(string(targetType), id)...)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	}
}

// routeTarget names the post or comment a reaction, report or flag route
// acts on.
func routeTarget(c *fiber.Ctx) (models.TargetType, int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return "", 0, false
	}
	if raw := c.Params("type"); raw != "" {
		targetType, err := models.ParseTargetType(raw)
		if err != nil {
			return "", 0, false
		}
		return targetType, id, true
	}

	route := c.Route().Path
	if !strings.HasSuffix(route, "/reactions") && !strings.HasSuffix(route, "/reports") && !strings.HasSuffix(route, "/flag") {
		return "", 0, false
	}
	switch {
	case strings.Contains(route, "/posts/:id/"):
		return models.TargetPost, id, true
	case strings.Contains(route, "/comments/:id/"):
		return models.TargetComment, id, true
	}
	return "", 0, false
}
