// Package domain contains core concepts of the chat relay.
// This file defines User entities, name normalization and the agent identity.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"math/rand/v2"
	"strings"
	"unicode"
)

// User is a live room member for the duration of one session.
// The ID is assigned by the transport layer and never changes.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Room     string `json:"room"`
	Emoji    string `json:"emoji"`
}

// Agent is the pseudo-member reported in every room listing.
// It never occupies a registry slot and is never removable.
var Agent = User{
	ID:       "ai-agent-001",
	Username: "Agent",
	Emoji:    "🤖",
}

// Admin is the synthetic sender of welcome/joined/left notifications.
const (
	AdminName  = "Admin"
	AdminEmoji = "👋"
)

var emojiPalette = []string{
	"😊", "😎", "🤖", "👻", "🦄", "🐱", "🐶", "🦊", "🐼", "🐨",
	"🐯", "🦁", "🐸", "🐙", "🦋", "🦅", "🦉", "🦒", "🦘", "🦔",
}

// RandomEmoji picks a uniform random emoji from the palette.
// Draws are independent, repeats across users are expected.
func RandomEmoji() string {
	return emojiPalette[rand.IntN(len(emojiPalette))]
}

// NormalizeRoom stores room names trimmed and uppercased so that
// "lobby" and "Lobby" are the same room.
func NormalizeRoom(room string) string {
	return strings.ToUpper(strings.TrimSpace(room))
}

// NormalizeUsername stores usernames trimmed, lowercased, with the first
// letter capitalized. Uniqueness checks compare the normalized form.
func NormalizeUsername(username string) string {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return ""
	}
	runes := []rune(username)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
