package middleware

import (
	"strconv"
	"strings"

	"memoria/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TraceHeader echoes the trace id back to clients so a bug report can quote it.
const TraceHeader = "X-Trace-ID"

// resourceAttr maps the first path segment under /api to the span attribute
// that carries the :id param of that resource.
var resourceAttr = map[string]string{
	"groups":   "memoria.group_id",
	"posts":    "memoria.post_id",
	"comments": "memoria.comment_id",
}

// TracingMiddleware opens one server span per request, continuing any
// incoming W3C trace context.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		carrier := propagation.HeaderCarrier(c.GetReqHeaders())
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), carrier)

		ctx, span := observability.Tracer.Start(ctx, c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.target", c.OriginalURL()),
				attribute.String("http.client_ip", c.IP()),
				attribute.String("http.user_agent", c.Get(fiber.HeaderUserAgent)),
			),
		)
		defer span.End()

		sc := span.SpanContext()
		c.Locals("traceID", sc.TraceID().String())
		c.Locals("spanID", sc.SpanID().String())
		c.Set(TraceHeader, sc.TraceID().String())
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			span.SetAttributes(attribute.String("request.id", rid))
		}
		c.SetUserContext(ctx)

		err := c.Next()

		route := c.Route().Path
		status := c.Response().StatusCode()
		span.SetName(c.Method() + " " + route)
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
		if attr, id := routeResource(route, c); attr != "" {
			span.SetAttributes(attribute.Int64(attr, id))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, strconv.Itoa(status))
		}
		return err
	}
}

func routeResource(route string, c *fiber.Ctx) (string, int64) {
	rest, ok := strings.CutPrefix(route, "/api/")
	if !ok || !strings.Contains(rest, ":id") {
		return "", 0
	}
	segment, _, _ := strings.Cut(rest, "/")
	attr := resourceAttr[segment]
	if attr == "" {
		return "", 0
	}
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return "", 0
	}
	return attr, id
}
