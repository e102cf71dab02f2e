// Package store executes tessera statements against DynamoDB.
//
// [Store] implements [query.Transport] on top of the PartiQL APIs of the AWS
// SDK: single statements go through ExecuteStatement, batches through
// BatchExecuteStatement. Result pages are chained through DynamoDB's opaque
// NextToken.
//
// # Configuration
//
// Use [DefaultConfig] and adjust as needed:
//
//	cfg := store.DefaultConfig()
//	cfg.PageSize = 100        // rows per round trip when a plan sets none
//	cfg.ConsistentRead = true // strongly consistent reads
//
// # Errors
//
// Store errors are propagated unchanged, except for the conditions below,
// which are mapped to sentinels:
//
//   - [ErrAlreadyExists] - an insert hit an existing key
//   - [ErrConditionFailed] - a statement condition did not hold
//   - [ErrNoMorePages] - NextPage was called on the last page
//
// Failed members of a batch are reported together in a [*BatchError].
//
// An expired or foreign continuation token is rejected by DynamoDB and
// surfaces as the SDK's validation error; tokens are not checked locally.
package store
