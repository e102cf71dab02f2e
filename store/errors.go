package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	// ErrAlreadyExists is returned when an insert targets a key that already has a row.
	ErrAlreadyExists = errors.New("tessera: row already exists")

	// ErrConditionFailed is returned when a statement's condition did not hold.
	ErrConditionFailed = errors.New("tessera: condition failed")

	// ErrNoMorePages is returned by NextPage on the last page of a result.
	ErrNoMorePages = errors.New("tessera: no more pages")
)

// BatchFailure describes one failed statement of a batch.
type BatchFailure struct {
	// Index is the position of the statement in the submitted batch.
	Index int

	// Code is the DynamoDB error code.
	Code string

	// Message is the DynamoDB error message.
	Message string
}

// BatchError reports the failed statements of a batch. Statements not listed
// were applied.
type BatchError struct {
	Failures []BatchFailure
}

// Error lists every failed statement.
func (e *BatchError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("#%d %s: %s", f.Index, f.Code, f.Message))
	}
	return "tessera: batch failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the sentinel for each recognized failure code, so
// errors.Is(err, ErrAlreadyExists) works on a batch.
func (e *BatchError) Unwrap() []error {
	var errs []error
	for _, f := range e.Failures {
		switch types.BatchStatementErrorCodeEnum(f.Code) {
		case types.BatchStatementErrorCodeEnumDuplicateItem:
			errs = append(errs, ErrAlreadyExists)
		case types.BatchStatementErrorCodeEnumConditionalCheckFailed:
			errs = append(errs, ErrConditionFailed)
		}
	}
	return errs
}

// mapStatementError maps DynamoDB condition exceptions to sentinels and
// leaves every other error untouched.
func mapStatementError(err error, table string) error {
	if err == nil {
		return nil
	}

	var dupErr *types.DuplicateItemException
	if errors.As(err, &dupErr) {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, table)
	}

	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return fmt.Errorf("%w: %s", ErrConditionFailed, table)
	}

	return err
}
