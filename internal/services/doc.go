// Package services implements the HTTP client for the remote task-management API.
//
// # Envelope
//
// Every endpoint answers with a JSON envelope {code, msg, data}. [TaskService] unwraps it:
//   - code == 0 : success, data decoded into the method's return value
//   - code != 0 : [*shared.APIError] carrying the server message verbatim, wrapping [shared.ErrServerRejected]
//   - anything else (network error, non-JSON body, HTTP error without an envelope) : an error wrapping [shared.ErrTransport]
//
// # Endpoints
//
//	GET    /task/list            → [TaskService.List]
//	GET    /task/{id}/status     → [TaskService.Status]
//	POST   /task                 → [TaskService.Create]
//	DELETE /task/{id}            → [TaskService.Delete]
//	POST   /task/{id}/start      → [TaskService.Start]
//	POST   /task/batch/start     → [TaskService.BatchStart]
//	POST   /task/batch/delete    → [TaskService.BatchDelete]
//	POST   /task/batch/create    → [TaskService.BatchCreate]
//
// # Authentication
//
// Login is handled elsewhere. A configured bearer token is attached through an [oauth2.StaticTokenSource]
// transport, and a configured session cookie is sent as-is.
//
// # Rate Limiting
//
// Outbound requests share one [rate.Limiter]; a zero rate disables it.
package services
