package api

import (
	"testing"

	"github.com/mmynk/gathersync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/emptypb"
)

func TestCodec(t *testing.T) {
	var c Codec
	assert.Equal(t, "json", c.Name())

	t.Run("plain messages use camelCase json", func(t *testing.T) {
		data, err := c.Marshal(&ParticipantRequest{
			EventID:     "e1",
			Participant: models.Participant{ID: "p1", Name: "Alice", Availability: map[string]bool{"2026-02-05": true}},
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{"eventId":"e1","participant":{"id":"p1","name":"Alice","availability":{"2026-02-05":true}}}`, string(data))

		var got ParticipantRequest
		require.NoError(t, c.Unmarshal(data, &got))
		assert.True(t, got.Participant.Availability["2026-02-05"])
	})

	t.Run("protobuf messages use protojson", func(t *testing.T) {
		data, err := c.Marshal(&emptypb.Empty{})
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(data))
		require.NoError(t, c.Unmarshal(data, &emptypb.Empty{}))
		require.NoError(t, c.Unmarshal(nil, &emptypb.Empty{}))
	})
}
