/*
Package tracing records request spans and logs them through zap.

Every API request gets a span named after its route. A caller can continue
its own trace by sending X-Trace-ID and X-Span-ID; the response always
carries the ids of the request span so a client report can be matched to
server logs.

# Usage

	tracer := tracing.New(logger.Component("trace"), 1000)
	defer tracer.Close()

	router.Use(tracing.Middleware(tracer))

	// Manual spans
	span, ctx := tracer.StartSpan(ctx, "prepare source")
	span.SetTag("kind", "remote")
	tracer.Finish(span)

Completed spans are handed to a buffered collector; when the buffer is
full the span is dropped with a warning rather than blocking the request.
*/
package tracing
