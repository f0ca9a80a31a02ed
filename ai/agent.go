// Package ai holds the agent trigger rules and the responder talking to
// the language model provider.
package ai

import (
	"regexp"
	"strings"
)

// triggerPattern is the case-insensitive prefix that addresses the agent.
var triggerPattern = regexp.MustCompile(`(?i)^@Agent\s+`)

// Apology replaces the agent's reply whenever the provider call fails.
// Upstream faults are never propagated to the room.
const Apology = "Sorry, I'm having trouble processing your request right now. Please try again later."

// Greeting is the reply to an empty prompt ("@Agent " with nothing after).
const Greeting = "Hello! I'm your AI assistant. How can I help you today?"

// IsAgentMessage reports whether the text addresses the agent.
func IsAgentMessage(text string) bool {
	return triggerPattern.MatchString(text)
}

// Prompt strips the trigger marker and surrounding whitespace.
func Prompt(text string) string {
	return strings.TrimSpace(triggerPattern.ReplaceAllString(text, ""))
}
