// Package tasks orchestrates remote task operations and watches running tasks until they settle.
//
// # Components
//
// [Engine] composes three parts behind one value:
//
//  1. [Store] : the local cache of the server's task list
//     - Replaced wholesale by [Store.Load]; concurrent loads collapse into one request
//     - Single deletes remove the row locally without a reload
//
//  2. [Scheduler] : one polling goroutine per watched task
//     - [Scheduler.Watch] is idempotent per id
//     - A status other than "running" ends the watch and reloads the store
//     - Errors end the watch; nothing is retried
//
//  3. Coordinators : methods on [Engine] for single and batch operations
//     - [Engine.Start], [Engine.Delete], [Engine.Create]
//     - [Engine.BatchStart], [Engine.BatchDelete], [Engine.BatchCreate]
//
// # Notices
//
// Every operator-facing message is a [models.Notice] delivered to the [Presenter]
// and, when configured, persisted through a [Recorder]. Recorder failures are logged only.
//
// # Stale responses
//
// A status response is applied only when the watch that issued it is still the registered
// watch for its id. Responses for cancelled or replaced watches are dropped.
package tasks
