package entity

import (
	"fmt"

	"github.com/google/uuid"
)

type ReviewStatus string

const (
	StatusPending  ReviewStatus = "pending"
	StatusApproved ReviewStatus = "approved"
	StatusRejected ReviewStatus = "rejected"
)

func (s ReviewStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ReviewAction is an event that moves a review between statuses.
type ReviewAction string

const (
	ActionApprove  ReviewAction = "approve"
	ActionReject   ReviewAction = "reject"
	ActionResubmit ReviewAction = "resubmit"
)

// ErrIllegalTransition is returned by Transition when the action is not
// allowed from the current status.
type ErrIllegalTransition struct {
	From   ReviewStatus
	Action ReviewAction
}

func (e *ErrIllegalTransition) Error() string {
	return fmt.Sprintf("cannot %s a review in status %s", e.Action, e.From)
}

// Transition returns the status reached by applying action to from.
// Moderation decisions apply only to pending reviews; a resubmit (edit)
// always lands in pending.
func Transition(from ReviewStatus, action ReviewAction) (ReviewStatus, error) {
	if !from.Valid() {
		return "", fmt.Errorf("unknown review status %q", from)
	}

	switch action {
	case ActionApprove:
		if from != StatusPending {
			return from, &ErrIllegalTransition{From: from, Action: action}
		}
		return StatusApproved, nil
	case ActionReject:
		if from != StatusPending {
			return from, &ErrIllegalTransition{From: from, Action: action}
		}
		return StatusRejected, nil
	case ActionResubmit:
		return StatusPending, nil
	default:
		return from, fmt.Errorf("unknown review action %q", action)
	}
}

type Review struct {
	BaseSimple
	UserID     uuid.UUID    `db:"user_id"`
	Title      string       `db:"title"`
	MovieTitle string       `db:"movie_title"`
	Content    string       `db:"content"`
	Status     ReviewStatus `db:"status"`
	Likes      int          `db:"likes"`
}

func (r *Review) IsOwnedBy(userID uuid.UUID) bool {
	return r.UserID == userID
}

// ReviewWithAuthor is a review joined with its owner's username.
type ReviewWithAuthor struct {
	Review
	AuthorUsername string `db:"author_username"`
}
