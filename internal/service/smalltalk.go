package service

import (
	"math/rand/v2"
	"strings"
)

// smallTalkReplies maps normalized trigger phrases to candidate replies.
// Matching a trigger bypasses history, retrieval and the LLM entirely.
var smallTalkReplies = map[string][]string{
	"hi": {
		"Hello! 👋 How can I help you today?",
		"Hey there! 😃",
		"Hi! 🙌 What's up?",
	},
	"hello": {
		"Hi there! 🙂",
		"Hello 👋 How's everything going?",
		"Hey! 🌟 Nice to see you.",
	},
	"hey": {
		"Hey! What's up?",
		"Yo! 👋",
		"Hey there, how's it going? 😎",
	},
	"good morning": {
		"Good morning ☀️ Hope your day is going well!",
		"Morning! 🌞 Wishing you a productive day ahead.",
		"Rise and shine! 🌅",
	},
	"good afternoon": {
		"Good afternoon 🌞",
		"Hope your afternoon is going great! 🌻",
		"Hey! ☀️ How's your day so far?",
	},
	"good evening": {
		"Good evening 🌙",
		"Evening! ✨ How's everything going?",
		"Hope you had a great day! 🌆",
	},
	"bye": {
		"See you later! 👋",
		"Bye-bye! Take care 🌸",
		"Catch you soon! 🚀",
	},
	"goodbye": {
		"Goodbye! 👋 Have a great day!",
		"See you next time! 🌟",
		"Bye! Stay awesome 🤩",
	},
	"thanks": {
		"You're welcome! 🙌",
		"No problem at all, happy to help! 😊",
		"You got it! 👍",
		"Always here if you need me 🙌",
	},
	"thank you": {
		"Glad I could help! 😊",
		"Anytime! 🌟",
		"Always here to support you 🙌",
	},
	"who are you": {
		"I'm the Gryork Bot 🤖, created to help you with Gryork and beyond!",
		"I'm a bot 🤖 created by Gryork Engineers to assist you.",
		"I'm your friendly AI assistant, here to chat and share knowledge 🌟",
	},
	"what can you do": {
		"I can answer questions, chat casually, and share information about Gryork's services.",
		"I can help with Gryork-related queries, or just talk about anything you'd like 🙂",
		"I can provide insights on Gryork, answer general questions, and keep you company 🤝",
	},
}

// SmallTalk answers a fixed set of conversational triggers with canned
// replies. The table is static and never mutated, so the matcher is safe for
// concurrent use.
type SmallTalk struct {
	replies map[string][]string
}

// NewSmallTalk creates a matcher over the built-in trigger table.
func NewSmallTalk() *SmallTalk {
	return &SmallTalk{replies: smallTalkReplies}
}

// IsSmallTalk reports whether the normalized query exactly matches a trigger.
func (s *SmallTalk) IsSmallTalk(query string) bool {
	_, ok := s.replies[normalize(query)]
	return ok
}

// Respond picks uniformly at random among the trigger's candidate replies.
// The caller must have checked IsSmallTalk first.
func (s *SmallTalk) Respond(query string) string {
	candidates := s.replies[normalize(query)]
	return candidates[rand.IntN(len(candidates))]
}

func normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
