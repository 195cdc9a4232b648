// Package lifecycle owns the content status transition table.
//
// Every status change of a content item is decided here. Callers compute the
// target state with Next and then persist it with a conditional update keyed on
// the state they read, so that a concurrent change surfaces as a conflict
// instead of being overwritten.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"

	"contentflow/internal/models"
)

// Trigger names an action that may move a content item between states.
type Trigger string

// Transition triggers.
const (
	TriggerSubmit            Trigger = "submit"
	TriggerSubmitForReview   Trigger = "submit_for_review"
	TriggerReissue           Trigger = "reissue"
	TriggerApprove           Trigger = "approve"
	TriggerRequestAdjustment Trigger = "request_adjustment"
	TriggerResubmit          Trigger = "resubmit"
	TriggerRework            Trigger = "rework"
	TriggerSchedule          Trigger = "schedule"
	TriggerPublish           Trigger = "publish"
	TriggerCancel            Trigger = "cancel"
)

var (
	// ErrIllegalTransition means no row of the table matches the state and trigger.
	ErrIllegalTransition = errors.New("illegal transition")
	// ErrGuardFailed means the row exists but its precondition is not met.
	ErrGuardFailed = errors.New("transition guard failed")
)

// TransitionError describes a rejected transition.
type TransitionError struct {
	From    models.ContentStatus
	Trigger Trigger
	Reason  string
	kind    error
}

func (e *TransitionError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: cannot %s from %s", e.kind, e.Trigger, e.From)
	}
	return fmt.Sprintf("%s: cannot %s from %s: %s", e.kind, e.Trigger, e.From, e.Reason)
}

// Unwrap lets errors.Is match ErrIllegalTransition or ErrGuardFailed.
func (e *TransitionError) Unwrap() error {
	return e.kind
}

// Guard carries the facts a transition precondition may inspect.
type Guard struct {
	InternalApproved bool
	HasPublishDate   bool
	Comment          string
	// LinkIssued is set by callers that create a new approval link in the same unit of work.
	LinkIssued bool
	// LinkUsable is set by the resolver once the resolving link is pending and unexpired.
	LinkUsable bool
}

type rule struct {
	to    models.ContentStatus
	check func(Guard) string
}

type key struct {
	from    models.ContentStatus
	trigger Trigger
}

func requireGate(g Guard) string {
	if !g.InternalApproved {
		return "internal approval required"
	}
	if !g.LinkIssued {
		return "a new approval link must be issued"
	}
	return ""
}

var table = map[key]rule{
	{models.ContentDraft, TriggerSubmit}: {to: models.ContentInProduction},

	{models.ContentInProduction, TriggerSubmitForReview}: {to: models.ContentPendingApproval, check: requireGate},

	{models.ContentPendingApproval, TriggerReissue}: {to: models.ContentPendingApproval, check: requireGate},

	{models.ContentAdjustmentRequested, TriggerResubmit}: {to: models.ContentPendingApproval, check: requireGate},

	{models.ContentAdjustmentRequested, TriggerRework}: {to: models.ContentInProduction},

	{models.ContentPendingApproval, TriggerApprove}: {to: models.ContentApproved, check: func(g Guard) string {
		if !g.LinkUsable {
			return "approval link is not pending or has expired"
		}
		return ""
	}},

	{models.ContentPendingApproval, TriggerRequestAdjustment}: {to: models.ContentAdjustmentRequested, check: func(g Guard) string {
		if strings.TrimSpace(g.Comment) == "" {
			return "comment is required"
		}
		if !g.LinkUsable {
			return "approval link is not pending or has expired"
		}
		return ""
	}},

	{models.ContentApproved, TriggerSchedule}: {to: models.ContentScheduled, check: func(g Guard) string {
		if !g.HasPublishDate {
			return "publish date is not set"
		}
		return ""
	}},

	{models.ContentScheduled, TriggerPublish}: {to: models.ContentPublished},
}

// cancelable states are everything before scheduled.
var cancelable = map[models.ContentStatus]bool{
	models.ContentDraft:               true,
	models.ContentInProduction:        true,
	models.ContentPendingApproval:     true,
	models.ContentAdjustmentRequested: true,
	models.ContentApproved:            true,
}

// Next returns the state reached by applying trigger to from, or a *TransitionError.
func Next(from models.ContentStatus, trigger Trigger, g Guard) (models.ContentStatus, error) {
	if trigger == TriggerCancel {
		if !cancelable[from] {
			return "", &TransitionError{From: from, Trigger: trigger, kind: ErrIllegalTransition}
		}
		return models.ContentCanceled, nil
	}

	r, ok := table[key{from, trigger}]
	if !ok {
		return "", &TransitionError{From: from, Trigger: trigger, kind: ErrIllegalTransition}
	}
	if r.check != nil {
		if reason := r.check(g); reason != "" {
			return "", &TransitionError{From: from, Trigger: trigger, Reason: reason, kind: ErrGuardFailed}
		}
	}
	return r.to, nil
}

// Allowed reports whether trigger is defined for from, ignoring guards.
func Allowed(from models.ContentStatus, trigger Trigger) bool {
	if trigger == TriggerCancel {
		return cancelable[from]
	}
	_, ok := table[key{from, trigger}]
	return ok
}

var directTriggers = []Trigger{TriggerSubmit, TriggerRework, TriggerSchedule, TriggerPublish, TriggerCancel}

// Actions lists the direct triggers defined for from, ignoring guards.
// An issuing trigger is included under its own name when a link may be issued.
func Actions(from models.ContentStatus) []string {
	actions := []string{}
	for _, tr := range directTriggers {
		if Allowed(from, tr) {
			actions = append(actions, string(tr))
		}
	}
	if tr, ok := IssuingTrigger(from); ok {
		actions = append(actions, string(tr))
	}
	return actions
}

// IssuingTrigger returns the trigger that issues a new approval link from the given state.
func IssuingTrigger(from models.ContentStatus) (Trigger, bool) {
	switch from {
	case models.ContentInProduction:
		return TriggerSubmitForReview, true
	case models.ContentPendingApproval:
		return TriggerReissue, true
	case models.ContentAdjustmentRequested:
		return TriggerResubmit, true
	}
	return "", false
}

// DecisionTrigger maps an approval decision to its transition trigger.
func DecisionTrigger(decision models.ApprovalStatus) (Trigger, bool) {
	switch decision {
	case models.ApprovalApproved:
		return TriggerApprove, true
	case models.ApprovalAdjustmentRequested:
		return TriggerRequestAdjustment, true
	}
	return "", false
}

// Direct reports whether trigger may be fired by a dashboard action on its own.
// Issuing triggers need a new approval link and decision triggers need a client's token.
func Direct(trigger Trigger) bool {
	switch trigger {
	case TriggerSubmit, TriggerRework, TriggerSchedule, TriggerPublish, TriggerCancel:
		return true
	}
	return false
}

// NextDirect is Next restricted to triggers for which Direct is true.
func NextDirect(from models.ContentStatus, trigger Trigger, g Guard) (models.ContentStatus, error) {
	if !Direct(trigger) {
		return "", &TransitionError{From: from, Trigger: trigger, Reason: "not available as a direct action", kind: ErrIllegalTransition}
	}
	return Next(from, trigger, g)
}
