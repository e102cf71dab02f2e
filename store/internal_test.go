package store

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// --- mapStatementError Tests ---

func TestMapStatementError_Nil(t *testing.T) {
	if err := mapStatementError(nil, "users"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestMapStatementError_DuplicateItem(t *testing.T) {
	err := mapStatementError(&types.DuplicateItemException{Message: aws.String("dup")}, "users")
	if !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
	if !strings.Contains(err.Error(), "users") {
		t.Errorf("expected table name in error, got %q", err.Error())
	}
}

func TestMapStatementError_ConditionalCheckFailed(t *testing.T) {
	err := mapStatementError(&types.ConditionalCheckFailedException{Message: aws.String("cond")}, "users")
	if !errors.Is(err, ErrConditionFailed) {
		t.Errorf("expected ErrConditionFailed, got %v", err)
	}
}

func TestMapStatementError_WrappedException(t *testing.T) {
	wrapped := fmt.Errorf("operation error: %w", &types.DuplicateItemException{Message: aws.String("dup")})
	if err := mapStatementError(wrapped, "users"); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists for wrapped exception, got %v", err)
	}
}

func TestMapStatementError_Unmapped(t *testing.T) {
	original := errors.New("some other error")
	if err := mapStatementError(original, "users"); err != original {
		t.Errorf("expected original error, got %v", err)
	}
}

// --- BatchError Tests ---

func TestBatchError_Message(t *testing.T) {
	err := &BatchError{Failures: []BatchFailure{
		{Index: 0, Code: "DuplicateItem", Message: "exists"},
		{Index: 3, Code: "ValidationError", Message: "bad"},
	}}

	msg := err.Error()
	if !strings.Contains(msg, "#0 DuplicateItem: exists") {
		t.Errorf("expected first failure in message, got %q", msg)
	}
	if !strings.Contains(msg, "#3 ValidationError: bad") {
		t.Errorf("expected second failure in message, got %q", msg)
	}
}

func TestBatchError_Unwrap(t *testing.T) {
	tests := []struct {
		name string
		code string
		want error
	}{
		{"duplicate item", "DuplicateItem", ErrAlreadyExists},
		{"conditional check", "ConditionalCheckFailed", ErrConditionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &BatchError{Failures: []BatchFailure{{Code: tt.code}}}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected errors.Is(%v), got false", tt.want)
			}
		})
	}
}

func TestBatchError_UnwrapUnknownCode(t *testing.T) {
	err := &BatchError{Failures: []BatchFailure{{Code: "InternalServerError"}}}
	if errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrConditionFailed) {
		t.Error("expected no sentinel for unknown code")
	}
}

// --- page Tests ---

func TestPage_EmptyTokenIsLast(t *testing.T) {
	p := &page{next: aws.String("")}
	if !p.IsLastPage() {
		t.Error("expected empty token to mark the last page")
	}
}

func TestPage_NilTokenIsLast(t *testing.T) {
	p := &page{}
	if !p.IsLastPage() {
		t.Error("expected nil token to mark the last page")
	}
	if p.Token() != "" {
		t.Errorf("expected empty token, got %q", p.Token())
	}
}
