package domain

import "time"

// MaxInviteReschedules is the number of reschedule proposals an invite allows.
const MaxInviteReschedules = 3

type InviteStatus string

const (
	InviteStatusPending     InviteStatus = "pending"
	InviteStatusAccepted    InviteStatus = "accepted"
	InviteStatusDeclined    InviteStatus = "declined"
	InviteStatusRescheduled InviteStatus = "rescheduled"
	InviteStatusCancelled   InviteStatus = "cancelled"
)

func (s InviteStatus) Valid() bool {
	switch s {
	case InviteStatusPending, InviteStatusAccepted, InviteStatusDeclined, InviteStatusRescheduled, InviteStatusCancelled:
		return true
	}
	return false
}

// Open reports whether the invite can still be negotiated.
func (s InviteStatus) Open() bool {
	return s == InviteStatusPending || s == InviteStatusRescheduled
}

type InviteResponse string

const (
	InviteResponseAccepted InviteResponse = "accepted"
	InviteResponseDeclined InviteResponse = "declined"
)

type InviteAction string

const (
	InviteActionAccept     InviteAction = "accept"
	InviteActionDecline    InviteAction = "decline"
	InviteActionReschedule InviteAction = "propose_reschedule"
	InviteActionCancel     InviteAction = "cancel"
)

type Invite struct {
	ID                 string       `json:"id"`
	SenderID           string       `json:"sender_id"`
	ReceiverID         string       `json:"receiver_id"`
	Range              TimeRange    `json:"range"`
	Status             InviteStatus `json:"status"`
	RescheduleCount    int          `json:"reschedule_count"`
	Proposal           *Proposal    `json:"proposal,omitempty"`
	CancellationReason string       `json:"cancellation_reason,omitempty"`
	Location           string       `json:"location,omitempty"`
	Message            string       `json:"message,omitempty"`
	StartsAt           time.Time    `json:"starts_at"`
	EndsAt             time.Time    `json:"ends_at"`
	Version            int64        `json:"version"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

func (i *Invite) Participants() []string {
	return []string{i.SenderID, i.ReceiverID}
}

func (i *Invite) Involves(userID string) bool {
	return userID == i.SenderID || userID == i.ReceiverID
}

func (i *Invite) Counterparty(userID string) string {
	if userID == i.SenderID {
		return i.ReceiverID
	}
	return i.SenderID
}

// Responder is the user expected to accept or decline next.
func (i *Invite) Responder() string {
	if i.Status == InviteStatusRescheduled && i.Proposal != nil {
		return i.Counterparty(i.Proposal.ProposedBy)
	}
	return i.ReceiverID
}

// Claims returns the claims the invite must hold in its current state.
// Only an accepted invite holds time.
func (i *Invite) Claims() []Claim {
	if i.Status != InviteStatusAccepted {
		return nil
	}
	return claimsFor(RefInvite, i.ID, i.StartsAt, i.EndsAt, i.Participants())
}

// AvailableActions lists what userID may do with the invite right now.
func (i *Invite) AvailableActions(userID string, limit int) []InviteAction {
	if !i.Status.Open() || !i.Involves(userID) {
		return nil
	}
	var actions []InviteAction
	if userID == i.Responder() {
		actions = append(actions, InviteActionAccept, InviteActionDecline)
	}
	if i.RescheduleCount < limit {
		actions = append(actions, InviteActionReschedule)
	}
	if userID == i.SenderID {
		actions = append(actions, InviteActionCancel)
	}
	return actions
}
