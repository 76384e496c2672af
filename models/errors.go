package models

import (
	"fmt"
	"strconv"
)

// ErrorInvalidRequest means the caller violated a precondition. Entity and Key
// form the client-facing error code, e.g. "post" / "idexists".
type ErrorInvalidRequest struct {
	Entity  string
	Key     string
	Message string
}

func (e *ErrorInvalidRequest) Error() string {
	return e.Message
}

// Code returns the "error.<key>" code sent to clients.
func (e *ErrorInvalidRequest) Code() string {
	return "error." + e.Key
}

func NewInvalidRequest(entity, key, message string) *ErrorInvalidRequest {
	return &ErrorInvalidRequest{Entity: entity, Key: key, Message: message}
}

type ErrorNotFound struct {
	Entity string
	ID     uint
}

func (e *ErrorNotFound) Error() string {
	return e.Entity + " " + strconv.FormatUint(uint64(e.ID), 10) + " not found"
}

type ErrorConflict struct {
	Message string
}

func (e *ErrorConflict) Error() string {
	return e.Message
}

type ErrorUnauthorized struct {
	Message string
}

func (e *ErrorUnauthorized) Error() string {
	return e.Message
}

// ErrorStorage wraps a failure of a backing store. It aborts the request.
type ErrorStorage struct {
	Op  string
	Err error
}

func (e *ErrorStorage) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *ErrorStorage) Unwrap() error {
	return e.Err
}

// ErrorIndexPropagation is a search index write that failed after the primary
// store had already committed. It is logged and queued, never returned to
// HTTP callers.
type ErrorIndexPropagation struct {
	Op     IndexOperation
	PostID uint
	Err    error
}

func (e *ErrorIndexPropagation) Error() string {
	return fmt.Sprintf("index %s post %d: %v", e.Op, e.PostID, e.Err)
}

func (e *ErrorIndexPropagation) Unwrap() error {
	return e.Err
}
