package models

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrNotFound is returned when a room, message, call or user does not exist.
	ErrNotFound = status.Error(codes.NotFound, "not found")

	// ErrForbidden is returned when the actor lacks membership or role for the operation.
	ErrForbidden = status.Error(codes.PermissionDenied, "forbidden")

	// ErrConflict is returned on duplicate rooms and already-member additions.
	ErrConflict = status.Error(codes.AlreadyExists, "conflict")

	// ErrInvalidState is returned when a state-machine guard fails,
	// e.g. accepting an already-accepted call.
	ErrInvalidState = status.Error(codes.FailedPrecondition, "invalid state")

	// ErrInvalidOperation is returned for semantically nonsensical requests,
	// e.g. leaving a direct room.
	ErrInvalidOperation = status.Error(codes.InvalidArgument, "invalid operation")

	// ErrBusy is returned when the call receiver already has an active session.
	ErrBusy = status.Error(codes.ResourceExhausted, "busy")

	// ErrUnavailable is returned when the store or broker cannot be reached.
	// Callers may retry; mutating operations are not retried internally.
	ErrUnavailable = status.Error(codes.Unavailable, "unavailable")
)
