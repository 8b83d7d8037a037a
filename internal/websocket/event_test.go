package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	before := time.Now().UTC()
	event := NewEvent(EventTypeImported, EntityTypeTransaction, map[string]int{"count": 2})

	assert.Equal(t, "transaction.imported", event.Type)
	assert.Equal(t, EntityTypeTransaction, event.Entity)
	assert.False(t, event.Timestamp.Before(before))
}

func TestEvent_ToJSON(t *testing.T) {
	event := CategoriesCreated([]string{"Food", "Salary"})

	data, err := event.ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "category.created", decoded["type"])
	assert.Equal(t, "category", decoded["entity"])
	assert.Equal(t, []interface{}{"Food", "Salary"}, decoded["payload"])
	assert.Contains(t, decoded, "timestamp")
}

func TestStreamConnected(t *testing.T) {
	event := StreamConnected("client-7")

	assert.Equal(t, "stream.connected", event.Type)
	assert.Equal(t, EntityTypeStream, event.Entity)
	assert.Equal(t, map[string]string{"clientId": "client-7"}, event.Payload)
}
