package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	raw := []byte(`{"id":" evt_1 ","type":"subscription.activated","metadata":{"user_id":"42"},"data":{"plan":"pro"}}`)

	evt, err := ParseEvent("billing", raw)
	require.NoError(t, err)
	assert.Equal(t, "billing", evt.Provider)
	assert.Equal(t, "evt_1", evt.ID)
	assert.Equal(t, "subscription.activated", evt.Type)
	assert.Equal(t, uint(42), evt.UserID)
	assert.JSONEq(t, `{"plan":"pro"}`, string(evt.Data))
	assert.Equal(t, raw, evt.Raw)
}

func TestParseEvent_NumericUserID(t *testing.T) {
	evt, err := ParseEvent("identity", []byte(`{"id":"e","type":"t","metadata":{"user_id":7}}`))
	require.NoError(t, err)
	assert.Equal(t, uint(7), evt.UserID)
}

func TestParseEvent_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":         `{"id":`,
		"missing id":       `{"type":"t","metadata":{"user_id":"1"}}`,
		"missing type":     `{"id":"e","metadata":{"user_id":"1"}}`,
		"missing metadata": `{"id":"e","type":"t"}`,
		"missing user":     `{"id":"e","type":"t","metadata":{}}`,
		"zero user":        `{"id":"e","type":"t","metadata":{"user_id":"0"}}`,
		"negative user":    `{"id":"e","type":"t","metadata":{"user_id":-3}}`,
		"non-numeric user": `{"id":"e","type":"t","metadata":{"user_id":"abc"}}`,
		"metadata array":   `{"id":"e","type":"t","metadata":[1]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseEvent("billing", []byte(body))
			assert.ErrorIs(t, err, ErrMalformedEvent)
		})
	}
}
