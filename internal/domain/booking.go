package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusDeclined  BookingStatus = "declined"
	BookingStatusCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusDeclined, BookingStatusCancelled:
		return true
	}
	return false
}

// Active statuses hold the booked time for both parties.
func (s BookingStatus) Active() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

// Proposal is an outstanding counter-offer on a booking or invite.
type Proposal struct {
	Range      TimeRange `json:"range"`
	ProposedBy string    `json:"proposed_by"`
}

type Booking struct {
	ID              string        `json:"id"`
	RequesterID     string        `json:"requester_id"`
	OpponentID      string        `json:"opponent_id"`
	AvailabilityID  string        `json:"availability_id,omitempty"`
	Range           TimeRange     `json:"range"`
	Status          BookingStatus `json:"status"`
	Proposal        *Proposal     `json:"proposal,omitempty"`
	RescheduleCount int           `json:"reschedule_count"`
	Location        string        `json:"court_location,omitempty"`
	Message         string        `json:"message,omitempty"`
	StartsAt        time.Time     `json:"starts_at"`
	EndsAt          time.Time     `json:"ends_at"`
	Version         int64         `json:"version"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Participants returns the users whose time the booking holds.
func (b *Booking) Participants() []string {
	return []string{b.RequesterID, b.OpponentID}
}

// Counterparty returns the other participant for userID.
func (b *Booking) Counterparty(userID string) string {
	if userID == b.RequesterID {
		return b.OpponentID
	}
	return b.RequesterID
}

func (b *Booking) Involves(userID string) bool {
	return userID == b.RequesterID || userID == b.OpponentID
}

// Claims returns the claims the booking must hold in its current state.
func (b *Booking) Claims() []Claim {
	if !b.Status.Active() {
		return nil
	}
	return claimsFor(RefBooking, b.ID, b.StartsAt, b.EndsAt, b.Participants())
}
