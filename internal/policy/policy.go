// Package policy holds the authorization and validation rules applied before
// any Post, Comment or Follow is mutated.
package policy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthorizationDenied rejects a mutating request on an object the
	// requester does not own. The object is left unchanged.
	ErrAuthorizationDenied = errors.New("you do not have permission to perform this action")

	// ErrValidationFailed is the parent kind of every follow validation error.
	ErrValidationFailed = errors.New("validation failed")
	ErrSelfFollow       = errors.New("self follow")
	ErrDuplicateFollow  = errors.New("duplicate follow")
)

// Owned is implemented by records that carry an author.
type Owned interface {
	OwnerID() int64
}

// IsSafeMethod reports whether method never mutates state.
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// Allow decides whether requester may run method against a resource owned by
// owner. Anonymous requesters are passed as 0 and never own anything.
func Allow(method string, requester, owner int64) bool {
	if IsSafeMethod(method) {
		return true
	}
	return requester != 0 && requester == owner
}

// AllowStaff grants staff users deletion of any object.
func AllowStaff(method string, isStaff bool) bool {
	return isStaff && method == http.MethodDelete
}

// Check is Allow over an Owned record, returning ErrAuthorizationDenied on refusal.
func Check(method string, requester int64, isStaff bool, obj Owned) error {
	if Allow(method, requester, obj.OwnerID()) || AllowStaff(method, isStaff) {
		return nil
	}
	return ErrAuthorizationDenied
}

// ValidationError is a field-level rejection of client input.
type ValidationError struct {
	Field   string
	Message string
	kind    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap exposes both the specific kind and ErrValidationFailed to errors.Is.
func (e *ValidationError) Unwrap() []error {
	if e.kind == nil {
		return []error{ErrValidationFailed}
	}
	return []error{e.kind, ErrValidationFailed}
}

// NewValidationError builds a field error with no specific kind.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Subject identifies a user taking part in a follow relationship.
type Subject struct {
	ID       int64
	Username string
}

// FollowLookup reports whether follower already follows followee.
type FollowLookup interface {
	FollowExists(ctx context.Context, followerID, followeeID int64) (bool, error)
}

// SelfFollowError is returned when a user targets themselves.
func SelfFollowError() error {
	return &ValidationError{Field: "following", Message: "You cannot follow yourself!", kind: ErrSelfFollow}
}

// DuplicateFollowError is returned when the pair already exists.
func DuplicateFollowError(followee string) error {
	return &ValidationError{
		Field:   "following",
		Message: fmt.Sprintf("You already follow %s!", followee),
		kind:    ErrDuplicateFollow,
	}
}

// ValidateFollow checks that requester may start following followee. It does
// not persist anything; the store's unique index still guards concurrent inserts.
func ValidateFollow(ctx context.Context, store FollowLookup, requester, followee Subject) error {
	if requester.ID == followee.ID {
		return SelfFollowError()
	}
	exists, err := store.FollowExists(ctx, requester.ID, followee.ID)
	if err != nil {
		return err
	}
	if exists {
		return DuplicateFollowError(followee.Username)
	}
	return nil
}
