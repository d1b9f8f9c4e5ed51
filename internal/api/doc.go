// Package api is the JSON HTTP surface of aviary.
//
// Routes live under /api and are served through a middleware stack of
// recovery, request logging, CORS, per-IP rate limiting and bearer token
// authentication. Health probes are mounted outside the stack so load
// balancers are never rate limited or asked for credentials.
//
// Errors use a single envelope shape:
//
//	{"error": {"code": "not_found", "message": "agent not found"}}
//
// The chat endpoint responds over SSE with one terminal event carrying the
// full answer; there is no incremental token streaming.
package api
