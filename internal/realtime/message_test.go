package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The outbound envelope is exactly {type, payload}; anything a consumer
// needs beyond that travels inside the payload.
func TestOutboundFrameEnvelopeShape(t *testing.T) {
	frames := map[string][]byte{
		"event":        EventFrame("list-1", EventItemAdded, map[string]string{"name": "milk"}),
		"error":        ErrorFrame(ErrCodeNotAMember, "nope"),
		"kicked":       KickedFrame("list-1", "removed_by_owner"),
		"notification": NotificationFrame(map[string]string{"type": "LIST_INVITE"}),
	}

	for name, raw := range frames {
		t.Run(name, func(t *testing.T) {
			var envelope map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(raw, &envelope))

			keys := make([]string, 0, len(envelope))
			for k := range envelope {
				keys = append(keys, k)
			}
			assert.ElementsMatch(t, []string{"type", "payload"}, keys)
		})
	}
}

func TestParseFrameRejectsMissingType(t *testing.T) {
	_, err := ParseFrame([]byte(`{"payload":{}}`))
	assert.Error(t, err)

	_, err = ParseFrame([]byte(`{not json`))
	assert.Error(t, err)

	f, err := ParseFrame([]byte(`{"type":"ping"}`))
	require.NoError(t, err)
	assert.Equal(t, FramePing, f.Type)
}
