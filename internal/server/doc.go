// Package server provides HTTP routing, middleware, and an in-memory development task server.
//
// # Routing
//
// [APIRouter] mounts a table of [Route] values on an [http.ServeMux] with method-qualified
// patterns, so path values such as {id} are available through [http.Request.PathValue].
// Every route runs through the same [Middleware] chain, first entry outermost.
//
// # Development Task Server
//
// [TaskServer] serves the task-management API from memory so the CLI and TUI can be exercised
// without the production backend:
//   - Tasks start "waiting"; start moves them to "running"
//   - After the configured run time a running task settles as "finished" (result 1) or "failed" (result 0)
//   - Batch start only starts waiting tasks; other ids are ignored
//   - Failures are reported inside the JSON envelope with code 1, never through HTTP status codes
//
// When a token is configured, [RequireToken] rejects requests without a matching bearer token.
package server
