package notify

import (
	"errors"
	"regexp"
)

const (
	EventBookingRequested          = "booking.requested"
	EventBookingConfirmed          = "booking.confirmed"
	EventBookingRescheduleProposed = "booking.reschedule_proposed"
	EventBookingRescheduleAccepted = "booking.reschedule_accepted"
	EventBookingRejected           = "booking.rejected"
	EventBookingCancelled          = "booking.cancelled"
)

// ErrUnknownTemplate is returned when no template exists for an event.
var ErrUnknownTemplate = errors.New("no template for event")

// Template holds the per-channel texts for one event and language.
type Template struct {
	Subject string
	Body    string
	Sms     string
}

// Message is a rendered Template.
type Message struct {
	Subject string
	Body    string
	Sms     string
}

type templateKey struct {
	event string
	lang  string
}

// Catalog maps (event, language) to templates.
type Catalog map[templateKey]Template

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// Add registers a template.
func (c Catalog) Add(event, lang string, tpl Template) {
	c[templateKey{event: event, lang: lang}] = tpl
}

// Render fills the template for event in lang, falling back to English.
// Placeholders without a value render as empty strings.
func (c Catalog) Render(event, lang string, vars map[string]string) (Message, error) {
	tpl, ok := c[templateKey{event: event, lang: lang}]
	if !ok {
		tpl, ok = c[templateKey{event: event, lang: LangEnglish}]
	}
	if !ok {
		return Message{}, ErrUnknownTemplate
	}
	return Message{
		Subject: substitute(tpl.Subject, vars),
		Body:    substitute(tpl.Body, vars),
		Sms:     substitute(tpl.Sms, vars),
	}, nil
}

func substitute(s string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		return vars[name]
	})
}

// DefaultCatalog returns the booking templates in English and German.
func DefaultCatalog() Catalog {
	c := Catalog{}

	c.Add(EventBookingRequested, LangEnglish, Template{
		Subject: "New booking request: {{title}}",
		Body:    "Hello {{name}},\n\n{{counterpart}} requested \"{{title}}\" on {{day}}. Please confirm or reject the request.",
		Sms:     "New booking request \"{{title}}\" for {{day}}.",
	})
	c.Add(EventBookingRequested, LangGerman, Template{
		Subject: "Neue Buchungsanfrage: {{title}}",
		Body:    "Hallo {{name}},\n\n{{counterpart}} hat \"{{title}}\" für den {{day}} angefragt. Bitte bestätige oder lehne die Anfrage ab.",
		Sms:     "Neue Buchungsanfrage \"{{title}}\" für den {{day}}.",
	})

	c.Add(EventBookingConfirmed, LangEnglish, Template{
		Subject: "Booking confirmed: {{title}}",
		Body:    "Hello {{name}},\n\n{{counterpart}} confirmed \"{{title}}\" on {{day}}.",
		Sms:     "Your booking \"{{title}}\" on {{day}} is confirmed.",
	})
	c.Add(EventBookingConfirmed, LangGerman, Template{
		Subject: "Buchung bestätigt: {{title}}",
		Body:    "Hallo {{name}},\n\n{{counterpart}} hat \"{{title}}\" am {{day}} bestätigt.",
		Sms:     "Deine Buchung \"{{title}}\" am {{day}} ist bestätigt.",
	})

	c.Add(EventBookingRescheduleProposed, LangEnglish, Template{
		Subject: "New date proposed: {{title}}",
		Body:    "Hello {{name}},\n\n{{counterpart}} proposed {{proposed_day}} instead of {{day}} for \"{{title}}\".",
		Sms:     "New date {{proposed_day}} proposed for \"{{title}}\".",
	})
	c.Add(EventBookingRescheduleProposed, LangGerman, Template{
		Subject: "Neuer Termin vorgeschlagen: {{title}}",
		Body:    "Hallo {{name}},\n\n{{counterpart}} schlägt für \"{{title}}\" den {{proposed_day}} statt dem {{day}} vor.",
		Sms:     "Neuer Termin {{proposed_day}} für \"{{title}}\" vorgeschlagen.",
	})

	c.Add(EventBookingRescheduleAccepted, LangEnglish, Template{
		Subject: "New date accepted: {{title}}",
		Body:    "Hello {{name}},\n\n{{counterpart}} accepted {{day}} for \"{{title}}\".",
		Sms:     "{{counterpart}} accepted {{day}} for \"{{title}}\".",
	})
	c.Add(EventBookingRescheduleAccepted, LangGerman, Template{
		Subject: "Neuer Termin angenommen: {{title}}",
		Body:    "Hallo {{name}},\n\n{{counterpart}} hat den {{day}} für \"{{title}}\" angenommen.",
		Sms:     "{{counterpart}} hat den {{day}} für \"{{title}}\" angenommen.",
	})

	c.Add(EventBookingRejected, LangEnglish, Template{
		Subject: "Booking declined: {{title}}",
		Body:    "Hello {{name}},\n\n{{counterpart}} declined \"{{title}}\" on {{day}}.",
		Sms:     "Your booking \"{{title}}\" was declined.",
	})
	c.Add(EventBookingRejected, LangGerman, Template{
		Subject: "Buchung abgelehnt: {{title}}",
		Body:    "Hallo {{name}},\n\n{{counterpart}} hat \"{{title}}\" am {{day}} abgelehnt.",
		Sms:     "Deine Buchung \"{{title}}\" wurde abgelehnt.",
	})

	c.Add(EventBookingCancelled, LangEnglish, Template{
		Subject: "Booking cancelled: {{title}}",
		Body:    "Hello {{name}},\n\n{{counterpart}} cancelled \"{{title}}\" on {{day}}.",
		Sms:     "\"{{title}}\" on {{day}} was cancelled.",
	})
	c.Add(EventBookingCancelled, LangGerman, Template{
		Subject: "Buchung storniert: {{title}}",
		Body:    "Hallo {{name}},\n\n{{counterpart}} hat \"{{title}}\" am {{day}} storniert.",
		Sms:     "\"{{title}}\" am {{day}} wurde storniert.",
	})

	return c
}
