// Package verifier decides whether a claim completes a task. Every verification type has one
// Strategy, looked up in a Registry built once at startup.
package verifier

import (
	"context"
	"errors"
	"fmt"

	"questboard/internal/models"
)

type Detail string

const (
	DetailVerified         Detail = "verified"
	DetailAlreadyVerified  Detail = "already_verified"
	DetailNotFollowing     Detail = "not_following"
	DetailNotLiked         Detail = "not_liked"
	DetailNotRetweeted     Detail = "not_retweeted"
	DetailNotMember        Detail = "not_member"
	DetailDurationTooShort Detail = "duration_too_short"
	DetailNotPerformed     Detail = "not_performed"
	DetailQuizFailed       Detail = "quiz_failed"
	DetailMissingIdentity  Detail = "missing_identity"
	DetailMissingTarget    Detail = "missing_target"
	DetailUnavailable      Detail = "unavailable"
	DetailTimeout          Detail = "timeout"
	DetailRateLimited      Detail = "rate_limited"
)

// Result is the verdict of one strategy run.
type Result struct {
	Accepted    bool           `json:"accepted"`
	Detail      Detail         `json:"detail"`
	ExternalRef string         `json:"external_ref,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}

func Accept(ref string, data map[string]any) *Result {
	return &Result{Accepted: true, Detail: DetailVerified, ExternalRef: ref, Data: data}
}

func Reject(detail Detail, data map[string]any) *Result {
	return &Result{Accepted: false, Detail: detail, Data: data}
}

type ErrorKind string

const (
	// ErrorKindConfiguration is a broken task, for the quest creator to fix.
	ErrorKindConfiguration ErrorKind = "configuration"
	// ErrorKindIdentity means the user must link a platform account first.
	ErrorKindIdentity ErrorKind = "identity"
	// ErrorKindUnavailable is a platform failure; the user may retry.
	ErrorKindUnavailable ErrorKind = "unavailable"
)

type Error struct {
	Kind   ErrorKind
	Detail Detail
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("verifier %s: %s", e.Kind, e.Detail)
	}

	return fmt.Sprintf("verifier %s: %s: %v", e.Kind, e.Detail, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func configurationError(format string, args ...any) *Error {
	return &Error{Kind: ErrorKindConfiguration, Detail: DetailMissingTarget, Err: fmt.Errorf(format, args...)}
}

func identityError(platform models.Platform) *Error {
	return &Error{Kind: ErrorKindIdentity, Detail: DetailMissingIdentity, Err: fmt.Errorf("no linked %s account", platform)}
}

func unavailableError(err error) *Error {
	return &Error{Kind: ErrorKindUnavailable, Detail: DetailUnavailable, Err: err}
}

// AsError extracts the typed strategy error, if any.
func AsError(err error) (*Error, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr, true
	}

	return nil, false
}

// Strategy checks one claim. It must not record anything: the dispatcher owns persistence.
type Strategy interface {
	Verify(ctx context.Context, task *models.Task, user *models.UserIdentity, claim *models.Claim) (*Result, error)
}

type StrategyFunc func(ctx context.Context, task *models.Task, user *models.UserIdentity, claim *models.Claim) (*Result, error)

func (f StrategyFunc) Verify(ctx context.Context, task *models.Task, user *models.UserIdentity, claim *models.Claim) (*Result, error) {
	return f(ctx, task, user, claim)
}
