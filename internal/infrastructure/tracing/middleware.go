package tracing

import (
	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/ReaderBridge/internal/shared/id"
)

// Propagation headers
const (
	TraceIDHeader = "X-Trace-ID"
	SpanIDHeader  = "X-Span-ID"
)

// Middleware opens one span per request, continuing a caller's trace when
// the propagation headers are present
func Middleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithRemoteParent(c.Request.Context(),
			id.TraceID(c.GetHeader(TraceIDHeader)),
			id.SpanID(c.GetHeader(SpanIDHeader)),
		)

		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}
		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+name)
		if readerID := c.Param("id"); readerID != "" {
			span.SetTag("reader_id", readerID)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Header(TraceIDHeader, span.TraceID.String())
		c.Header(SpanIDHeader, span.SpanID.String())

		c.Next()

		span.SetStatus(c.Writer.Status())
		if len(c.Errors) > 0 {
			span.SetError(c.Errors.Last())
		}
		tracer.Finish(span)
	}
}
