// Package models defines the data shared by the task client, the engine and the development server.
//
// The package contains three categories of types:
//
// 1. Wire types: the JSON shapes of the task-management API
//   - [Envelope] : the {code, msg, data} wrapper every response uses
//   - [Task] : one background job as listed by /task/list
//   - [NewTask] : the payload for creating a task
//   - [StatusReport] : the payload of /task/{id}/status
//
// 2. Lifecycle: [Status] and its helpers. The client only distinguishes
// [StatusRunning] from everything else, plus [StatusWaiting] for batch-start eligibility.
//
// 3. Journal entries: [Notice] is a user-visible message emitted by the engine and optionally persisted.
package models
