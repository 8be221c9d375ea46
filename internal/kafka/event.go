package kafka

import "time"

type EventType string

const (
	EventBookingRequested        EventType = "booking_requested"
	EventBookingAccepted         EventType = "booking_accepted"
	EventBookingDeclined         EventType = "booking_declined"
	EventBookingCancelled        EventType = "booking_cancelled"
	EventBookingTimeProposed     EventType = "booking_time_proposed"
	EventBookingProposalAccepted EventType = "booking_proposal_accepted"
	EventBookingExpired          EventType = "booking_expired"

	EventInviteSent        EventType = "invite_sent"
	EventInviteAccepted    EventType = "invite_accepted"
	EventInviteDeclined    EventType = "invite_declined"
	EventInviteRescheduled EventType = "invite_rescheduled"
	EventInviteCancelled   EventType = "invite_cancelled"
	EventInviteExpired     EventType = "invite_expired"
)

// MatchEvent is emitted on every booking or invite transition. RecipientID
// is the participant the notification layer should tell.
type MatchEvent struct {
	Type        EventType `json:"type"`
	Entity      string    `json:"entity"`
	ID          string    `json:"id"`
	ActorID     string    `json:"actor_id,omitempty"`
	RecipientID string    `json:"recipient_id"`
	Status      string    `json:"status"`
	Date        string    `json:"date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	TimeZone    string    `json:"timezone"`
	StartsAt    time.Time `json:"starts_at"`
	Reason      string    `json:"reason,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
