package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Render(t *testing.T) {
	c := DefaultCatalog()

	msg, err := c.Render(EventBookingConfirmed, LangGerman, map[string]string{
		"name": "Anna", "counterpart": "Max", "title": "Fensterputz", "day": "2026-07-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "Buchung bestätigt: Fensterputz", msg.Subject)
	assert.Contains(t, msg.Body, "Hallo Anna")
	assert.Equal(t, "Deine Buchung \"Fensterputz\" am 2026-07-01 ist bestätigt.", msg.Sms)
}

func TestCatalog_FallsBackToEnglish(t *testing.T) {
	c := DefaultCatalog()
	msg, err := c.Render(EventBookingCancelled, "fr", map[string]string{"title": "Garden", "day": "2026-07-01"})
	require.NoError(t, err)
	assert.Equal(t, "Booking cancelled: Garden", msg.Subject)
}

func TestCatalog_UnknownEvent(t *testing.T) {
	_, err := DefaultCatalog().Render("booking.exploded", LangEnglish, nil)
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestCatalog_MissingPlaceholderRendersEmpty(t *testing.T) {
	c := Catalog{}
	c.Add("x", LangEnglish, Template{Subject: "Hi {{ name }}!{{missing}}", Body: "{{name}}{{name}}"})
	msg, err := c.Render("x", LangEnglish, map[string]string{"name": "Bo"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Bo!", msg.Subject)
	assert.Equal(t, "BoBo", msg.Body)
}

func TestCatalog_CoversAllBookingEvents(t *testing.T) {
	c := DefaultCatalog()
	events := []string{
		EventBookingRequested, EventBookingConfirmed, EventBookingRescheduleProposed,
		EventBookingRescheduleAccepted, EventBookingRejected, EventBookingCancelled,
	}
	for _, ev := range events {
		for _, lang := range []string{LangEnglish, LangGerman} {
			_, ok := c[templateKey{event: ev, lang: lang}]
			assert.True(t, ok, "%s/%s", ev, lang)
		}
	}
}

func TestResolveLanguage(t *testing.T) {
	tests := []struct {
		hint, stored, def, want string
	}{
		{"de-DE,de;q=0.9,en;q=0.8", "en", "en", LangGerman},
		{"fr-FR,en;q=0.5", "de", "en", LangEnglish},
		{"", "de", "en", LangGerman},
		{"", "de-AT", "en", LangGerman},
		{"fr", "", "de", LangGerman},
		{"not a tag!!", "", "de", LangGerman},
		{"", "", "", LangEnglish},
		{"", "xx", "es", LangEnglish},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveLanguage(tt.hint, tt.stored, tt.def), "hint=%q stored=%q def=%q", tt.hint, tt.stored, tt.def)
	}
}

func TestSupportedLanguage(t *testing.T) {
	assert.True(t, SupportedLanguage("de"))
	assert.True(t, SupportedLanguage("en-GB"))
	assert.False(t, SupportedLanguage("ja"))
	assert.False(t, SupportedLanguage(""))
}
