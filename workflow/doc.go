// Package workflow attaches load-state bookkeeping to asynchronous
// operations.
//
// Track and Run follow a single operation through its load states under one
// (group, key) record: the in-flight patch is written before the operation
// may settle, and the success or failure patch is written before the
// returned future settles. The returned future carries exactly the value or
// error of the original operation.
//
//	users := workflow.Run(ctx, runner, workflow.GroupStates, "users", fetchUsers)
//	list, err := users.Await(ctx) // record already shows loaded or failed
//
// RunBatch and TrackBatch do the same for a map of operations and also track
// their conjunction under the runner's aggregate key ("_all" by default).
// The aggregate's failure is reported to the observer at error level and
// never reaches the caller; failures of individual keys always do.
package workflow
