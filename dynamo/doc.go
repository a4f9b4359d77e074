// Package dynamo wraps the DynamoDB client with the handful of primitives the
// storage protocols are built from: point reads, condition-guarded writes and
// deletes, partial attribute updates, sort-key prefix queries, an email-index
// lookup, and an all-or-nothing transactional multi-write.
//
// Every item lives in one table keyed by the composite (PK, SK) pair; a
// global secondary index on the email attribute serves user lookups at login.
// Both names come from the environment, see [FromEnv].
//
// The only concurrency-control primitive is the conditional write. When a
// condition fails — directly, or as the cancellation reason of a transaction —
// the client reports [ErrConditionFailed]; callers decide what that means for
// their entity. Any other DynamoDB failure passes through untouched, and the
// client never retries.
package dynamo
