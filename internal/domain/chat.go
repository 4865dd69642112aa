package domain

import "time"

// ChatTurn is one persisted exchange between a user and the bot.
// Turns are immutable once saved; ordering is by the autoincrement ID,
// not the timestamp, since timestamps can collide at second resolution.
type ChatTurn struct {
	ID          int64     `json:"id"           db:"id"`
	UserMessage string    `json:"user_message" db:"user_message"`
	BotResponse string    `json:"bot_response" db:"bot_response"`
	Timestamp   time.Time `json:"timestamp"    db:"timestamp"`
}
