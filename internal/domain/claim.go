package domain

import "time"

type RefKind string

const (
	RefBooking RefKind = "booking"
	RefInvite  RefKind = "invite"
)

// Ref identifies the record that holds a claim.
type Ref struct {
	Kind RefKind
	ID   string
}

// Claim marks a user's time as held by a booking or an accepted invite.
// No two claims of one user may overlap.
type Claim struct {
	UserID   string
	Ref      Ref
	StartsAt time.Time
	EndsAt   time.Time
}

func claimsFor(kind RefKind, id string, start, end time.Time, users []string) []Claim {
	claims := make([]Claim, 0, len(users))
	for _, u := range users {
		claims = append(claims, Claim{UserID: u, Ref: Ref{Kind: kind, ID: id}, StartsAt: start, EndsAt: end})
	}
	return claims
}
