package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMessage_Wire_Shape_Text_Variant(t *testing.T) {
	req := require.New(t)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := Message{Username: "Alice", Text: "hello", Emoji: "😊", CreatedAt: at}

	data, err := json.Marshal(msg)
	req.NoError(err)

	var wire map[string]any
	req.NoError(json.Unmarshal(data, &wire))

	// Exactly one of text/url, createdAt as epoch millis
	req.Equal("hello", wire["text"])
	req.NotContains(wire, "url")
	req.Equal(float64(at.UnixMilli()), wire["createdAt"])
}

func TestMessage_Wire_Shape_Location_Variant(t *testing.T) {
	req := require.New(t)
	msg := NewLocationMessage("Alice", "https://google.com/maps?q=1,2", "😊")

	data, err := json.Marshal(msg)
	req.NoError(err)

	var wire map[string]any
	req.NoError(json.Unmarshal(data, &wire))

	req.Equal("https://google.com/maps?q=1,2", wire["url"])
	req.NotContains(wire, "text")
}

func TestMessage_Round_Trip(t *testing.T) {
	req := require.New(t)
	original := NewMessage("Alice", "hello", "😊")

	data, err := json.Marshal(original)
	req.NoError(err)

	var decoded Message
	req.NoError(json.Unmarshal(data, &decoded))
	req.Equal(original.Username, decoded.Username)
	req.Equal(original.Text, decoded.Text)
	req.False(decoded.IsLocation())
	// Stored at millisecond precision
	req.Equal(original.CreatedAt.UnixMilli(), decoded.CreatedAt.UnixMilli())
}

func TestNormalizeUsername(t *testing.T) {
	req := require.New(t)

	req.Equal("Alice", NormalizeUsername("aLICE"))
	req.Equal("Alice", NormalizeUsername("  alice  "))
	req.Equal("", NormalizeUsername("   "))
}

func TestNormalizeRoom(t *testing.T) {
	req := require.New(t)

	req.Equal("LOBBY", NormalizeRoom(" lobby "))
	req.Equal("ROOM1", NormalizeRoom("Room1"))
}
