/*
Package monitoring provides Prometheus metrics for the reader bridge.

# Overview

Metrics live on a private registry owned by each Metrics value, so tests and
embedded hosts can create as many as they like without colliding on the
global default registry.

# Features

- HTTP request metrics (latency, throughput, size)
- Inbound event counts by kind, and dropped messages by kind
- Commands injected into the sandbox, by intent and outcome
- Reading session and navigation index cache metrics
- WebSocket connection metrics

Metrics implements the dispatcher's Recorder interface directly.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "search")
	err := surface.Inject(ctx, script)
	timer.Stop(monitoring.StatusOf(err))
*/
package monitoring
