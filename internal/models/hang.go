package models

import "time"

// Hang statuses. A hang starts as a suggestion and flips to parent_approved
// only when the creator's own parental approval resolves positively.
const (
	HangStatusSuggested      = "suggested"
	HangStatusParentApproved = "parent_approved"
)

// Hang represents a proposed meetup suggested by a child
type Hang struct {
	ID             string
	Title          string
	ScheduledAt    time.Time
	CreatedBy      string
	Status         string
	ParentApproved bool
	CreatedAt      time.Time
}

// IsOpen reports whether the hang is joinable by non-creators
func (h *Hang) IsOpen() bool {
	return h.Status == HangStatusParentApproved
}

// ApprovalStatus is the per-participant parental approval state
type ApprovalStatus int

const (
	ApprovalUnpinged  ApprovalStatus = 0 // parent not yet asked
	ApprovalPending   ApprovalStatus = 1 // parent asked, awaiting decision
	ApprovalApproved  ApprovalStatus = 2 // terminal unless parent cancels
	ApprovalDeclined  ApprovalStatus = 3 // terminal
	ApprovalCancelled ApprovalStatus = 4 // terminal
)

func (s ApprovalStatus) String() string {
	switch s {
	case ApprovalUnpinged:
		return "unpinged"
	case ApprovalPending:
		return "pending"
	case ApprovalApproved:
		return "approved"
	case ApprovalDeclined:
		return "declined"
	case ApprovalCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// approvalTransitions is the single authoritative table of legal
// source -> target moves. A parent cancel is legal from any live state, so it
// is handled in CanTransitionTo rather than listed per source.
var approvalTransitions = map[ApprovalStatus][]ApprovalStatus{
	ApprovalUnpinged: {ApprovalPending},
	ApprovalPending:  {ApprovalApproved, ApprovalDeclined},
}

// CanTransitionTo reports whether moving from s to target is legal
func (s ApprovalStatus) CanTransitionTo(target ApprovalStatus) bool {
	if target == ApprovalCancelled {
		return s != ApprovalCancelled
	}
	for _, t := range approvalTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Participant is a hang membership record with its approval state
type Participant struct {
	HangID   string
	UserID   string
	Approval ApprovalStatus
	JoinedAt time.Time
}

// HangView is the per-viewer derived state of a hang
type HangView struct {
	Hang             Hang
	CreatorName      string
	ParticipantIDs   []string
	MyApprovalStatus *ApprovalStatus // nil if the viewer is not a participant
	IsCreator        bool
	IsCancelled      bool
}
