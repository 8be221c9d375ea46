// Package notify turns match events into messages for the delivery layer.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Domenick1991/matchbooking/internal/kafka"
)

type Notification struct {
	RecipientID string
	Subject     string
	Body        string
}

// Sender delivers a notification. Delivery itself lives outside this service.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, n Notification) error {
	s.logger.Info("notification", "recipient_id", n.RecipientID, "subject", n.Subject, "body", n.Body)
	return nil
}

type Dispatcher struct {
	sender Sender
	logger *slog.Logger
}

func NewDispatcher(sender Sender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, logger: logger}
}

// Handle renders event and hands it to the sender. Unknown event types are
// skipped.
func (d *Dispatcher) Handle(ctx context.Context, event kafka.MatchEvent) error {
	n, ok := Render(event)
	if !ok {
		d.logger.Debug("no notification for event", "type", event.Type, "id", event.ID)
		return nil
	}
	return d.sender.Send(ctx, n)
}

// Render builds the notification for event.
func Render(e kafka.MatchEvent) (Notification, bool) {
	when := fmt.Sprintf("%s %s-%s (%s)", e.Date, e.StartTime, e.EndTime, e.TimeZone)
	var subject, body string
	switch e.Type {
	case kafka.EventBookingRequested:
		subject, body = "New match request", "You have a new match request for "+when+"."
	case kafka.EventBookingAccepted:
		subject, body = "Match confirmed", "Your match request for "+when+" was accepted."
	case kafka.EventBookingDeclined:
		subject, body = "Match request declined", "Your match request for "+when+" was declined."
	case kafka.EventBookingCancelled:
		subject, body = "Match cancelled", "The match on "+when+" was cancelled."
	case kafka.EventBookingTimeProposed:
		subject, body = "New time proposed", "Your opponent proposed "+when+" instead."
	case kafka.EventBookingProposalAccepted:
		subject, body = "Proposed time accepted", "The match is confirmed for "+when+"."
	case kafka.EventBookingExpired:
		subject, body = "Match request expired", "The match request for "+when+" expired without an answer."
	case kafka.EventInviteSent:
		subject, body = "New match invite", "You were invited to play on "+when+"."
	case kafka.EventInviteAccepted:
		subject, body = "Invite accepted", "Your invite for "+when+" was accepted."
	case kafka.EventInviteDeclined:
		subject, body = "Invite declined", "Your invite for "+when+" was declined."
	case kafka.EventInviteRescheduled:
		subject, body = "Reschedule requested", "A new time was proposed: "+when+"."
	case kafka.EventInviteCancelled:
		subject, body = "Invite cancelled", "The invite for "+when+" was cancelled."
		if e.Reason != "" {
			body += " Reason: " + e.Reason
		}
	case kafka.EventInviteExpired:
		subject, body = "Invite expired", "The invite for "+when+" expired."
	default:
		return Notification{}, false
	}
	return Notification{RecipientID: e.RecipientID, Subject: subject, Body: body}, true
}
