// Package storage implements the persistence protocols for users, lists and
// tasks over a single DynamoDB table.
//
// # Table layout
//
// Every entity lives in one table, addressed by structured key prefixes:
//
//	entity           | PK            | SK
//	-----------------|---------------|---------------------
//	user             | USER#{id}     | USER#{id}
//	list             | USER#{userId} | LIST#{listId}
//	task (active)    | LIST#{listId} | TASK#active#{taskId}
//	task (completed) | LIST#{listId} | TASK#{taskId}
//
// A task's sort key encodes its completion state: scanning a list's active
// tasks is a prefix query on TASK#active#, scanning all of them a prefix
// query on TASK#. Completing or reopening a task therefore moves the item
// between the two key shapes rather than updating a flag, and a task has
// exactly one live item at any time.
//
// # Invariants and conflicts
//
// The table offers no multi-item transactions by default, so the protocols
// compose conditional writes: uniqueness of user ids and generated ids hangs
// off attribute_not_exists puts, and the two cross-item operations — creating
// a default list (list insert plus owner preference update) and moving a task
// between key shapes — go through a transactional write that commits fully or
// not at all.
//
// Recognized conditional failures are logged and reclassified into the typed
// errors of this package ([ErrUserNotFound], [ErrTaskNotFound],
// [ErrUsernameUnavailable], ...); every other store error propagates
// unmodified for the caller to classify. Nothing here retries.
package storage
