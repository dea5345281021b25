package service

import (
	"fmt"
)

// ValidationError reports bad input rejected before any storage side
// effect happened.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// RecordStoreError wraps a record store failure, noting which table and
// operation failed so the caller can render an actionable message.
type RecordStoreError struct {
	Table string
	Op    string
	Err   error
}

func (e *RecordStoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *RecordStoreError) Unwrap() error {
	return e.Err
}

// UploadError wraps a content store failure during blob upload.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload: %v", e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// ProcessingError wraps a retrieval service failure, carrying the remote
// status and message.
type ProcessingError struct {
	Status  int
	Message string
	Err     error
}

func (e *ProcessingError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("processing: %s", e.Message)
	}
	return fmt.Sprintf("processing: %v", e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}
