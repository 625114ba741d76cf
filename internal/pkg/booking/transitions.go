package booking

import (
	"github.com/ManuelReschke/Marketfox/app/models"
	"github.com/ManuelReschke/Marketfox/internal/pkg/notify"
)

// Action names a booking state change.
type Action string

const (
	ActionConfirm Action = "confirm"
	ActionPropose Action = "propose"
	ActionAccept  Action = "accept"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
)

// Party identifies which side of a booking acts or is notified.
type Party string

const (
	PartyClient   Party = "client"
	PartyProvider Party = "provider"
)

type transition struct {
	actor Party
	from  []string
	to    string
	event string
	note  string
}

var transitions = map[Action]transition{
	ActionConfirm: {
		actor: PartyProvider,
		from:  []string{models.BookingStatusPending},
		to:    models.BookingStatusConfirmed,
		event: notify.EventBookingConfirmed,
		note:  "Booking confirmed for %s.",
	},
	ActionPropose: {
		actor: PartyProvider,
		from:  []string{models.BookingStatusPending, models.BookingStatusConfirmed},
		to:    models.BookingStatusRescheduleProposed,
		event: notify.EventBookingRescheduleProposed,
		note:  "New date proposed: %s.",
	},
	ActionAccept: {
		actor: PartyClient,
		from:  []string{models.BookingStatusRescheduleProposed},
		to:    models.BookingStatusConfirmed,
		event: notify.EventBookingRescheduleAccepted,
		note:  "New date accepted: %s.",
	},
	ActionReject: {
		actor: PartyProvider,
		from:  []string{models.BookingStatusPending, models.BookingStatusRescheduleProposed},
		to:    models.BookingStatusRejected,
		event: notify.EventBookingRejected,
		note:  "Booking for %s was declined.",
	},
	ActionCancel: {
		actor: PartyClient,
		from:  []string{models.BookingStatusPending, models.BookingStatusConfirmed, models.BookingStatusRescheduleProposed},
		to:    models.BookingStatusCancelled,
		event: notify.EventBookingCancelled,
		note:  "Booking for %s was cancelled.",
	},
}

func (t transition) allows(status string) bool {
	for _, s := range t.from {
		if s == status {
			return true
		}
	}
	return false
}

// recipient is the other party.
func (t transition) recipient(b *models.Booking) uint {
	if t.actor == PartyClient {
		return b.ProviderID
	}
	return b.ClientID
}

func (t transition) isActor(b *models.Booking, userID uint) bool {
	if t.actor == PartyClient {
		return b.ClientID == userID
	}
	return b.ProviderID == userID
}
