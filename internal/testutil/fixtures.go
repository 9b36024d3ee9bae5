package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"roomchat/internal/domain"
)

var idCounter atomic.Int64

func nextID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, idCounter.Add(1))
}

// NewTestRoom builds a room with count seeded messages. Message timestamps
// ascend one second apart so pagination tests get a deterministic order.
func NewTestRoom(roomID string, count int) *domain.Room {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	messages := make([]domain.Message, 0, count)
	for i := 0; i < count; i++ {
		messages = append(messages, domain.Message{
			Sender:    "seeder",
			Content:   fmt.Sprintf("msg-%d", i),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
	}
	return &domain.Room{
		ID:        nextID("internal"),
		RoomID:    roomID,
		Messages:  messages,
		CreatedAt: base,
	}
}

// NewTestMessage builds one message with a fixed timestamp
func NewTestMessage(sender, content string) domain.Message {
	return domain.Message{
		Sender:    sender,
		Content:   content,
		Timestamp: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}
