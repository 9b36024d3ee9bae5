package domain

import "time"

// Message represents a single chat utterance. Once appended to a room it is
// immutable; Timestamp is assigned by the append service, never by the client.
type Message struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
