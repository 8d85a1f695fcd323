// Package server exposes comparisons over HTTP for the `incommon serve` command.
//
// Routes:
//
//	GET /health                 liveness probe
//	GET /compare?a=&b=[&save=]  run a comparison, optionally archiving it
//	GET /compare/stream?a=&b=   the same comparison as server-sent events
//	GET /comparisons[?limit=]   list archived comparisons, newest first
//	GET /comparisons/{id}       fetch one archived comparison
//	GET /metrics                Prometheus metrics, when [WithMetrics] is given
//
// [BasicRouter] sits on [net/http.ServeMux] and adds method filtering and a [Middleware] chain.
// [Logging] and [Recover] are installed by [NewRouter].
//
// Responses other than the event stream are JSON. Errors carry a single "error" field.
// Bad handles yield 400; failures during a comparison are reported as a generic 500.
package server
