package model

import "time"

// DeadLetterMessage is a job or event that could not be delivered after retries.
type DeadLetterMessage struct {
	ID         string    `db:"id"`
	Source     string    `db:"source"` // pgmq queue or Pub/Sub subscription name
	MessageID  string    `db:"message_id"`
	Payload    string    `db:"payload"`    // JSON
	Attributes *string   `db:"attributes"` // JSON, nullable
	Reason     string    `db:"reason"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
}
