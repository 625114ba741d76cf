package models

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&NotificationPreference{},
		&DeferredNotification{},
		&Booking{},
		&BookingMessage{},
		&SmsMessage{},
		&WebhookLedgerEntry{},
		&WebhookDLQItem{},
		&SmsDLQItem{},
		&Subscription{},
		&IdentityVerification{},
	}
}
