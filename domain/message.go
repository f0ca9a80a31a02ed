// Package domain contains core concepts of the chat relay.
// This file defines Message events and their wire shape.
// Messages are immutable once created.
package domain

import (
	"encoding/json"
	"time"
)

// Message is an immutable chat event. Exactly one of Text and URL is set:
// Text for regular messages, URL for location messages.
type Message struct {
	Username  string
	Text      string
	URL       string
	Emoji     string
	CreatedAt time.Time
}

// NewMessage builds a text message stamped with the current time.
func NewMessage(username, text, emoji string) Message {
	return Message{
		Username:  username,
		Text:      text,
		Emoji:     emoji,
		CreatedAt: time.Now().UTC(),
	}
}

// NewLocationMessage builds the location variant carrying a map URL.
func NewLocationMessage(username, url, emoji string) Message {
	return Message{
		Username:  username,
		URL:       url,
		Emoji:     emoji,
		CreatedAt: time.Now().UTC(),
	}
}

// IsLocation reports whether the message is the location variant.
func (m Message) IsLocation() bool {
	return m.URL != ""
}

// wireMessage is the transport-stable shape: createdAt is epoch millis and
// exactly one of text/url is present.
type wireMessage struct {
	Username  string  `json:"username"`
	Text      *string `json:"text,omitempty"`
	URL       *string `json:"url,omitempty"`
	Emoji     string  `json:"emoji"`
	CreatedAt int64   `json:"createdAt"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	wire := wireMessage{
		Username:  m.Username,
		Emoji:     m.Emoji,
		CreatedAt: m.CreatedAt.UnixMilli(),
	}
	if m.IsLocation() {
		wire.URL = &m.URL
	} else {
		wire.Text = &m.Text
	}
	return json.Marshal(wire)
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var wire wireMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	m.Username = wire.Username
	m.Emoji = wire.Emoji
	m.CreatedAt = time.UnixMilli(wire.CreatedAt).UTC()
	if wire.URL != nil {
		m.URL = *wire.URL
		m.Text = ""
	} else if wire.Text != nil {
		m.Text = *wire.Text
		m.URL = ""
	}
	return nil
}
