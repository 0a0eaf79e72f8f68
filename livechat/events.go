package livechat

import (
	"time"

	"github.com/stockstorm/widgets-go/livechat/rest"
)

// ChatMessage is one entry of the message view. Values are never mutated
// after construction.
type ChatMessage struct {
	ID        *int64
	Username  string
	UserID    int64
	Text      string
	Timestamp string
	IsSelf    bool
	AvatarURL *string
}

// messageFromFrame builds a ChatMessage from a socket frame received at now.
func messageFromFrame(f InboundFrame, selfID int64, now time.Time) ChatMessage {
	return ChatMessage{
		Username:  f.Username,
		UserID:    int64(f.UserID),
		Text:      f.Message,
		Timestamp: now.Format(TimestampLayout),
		IsSelf:    int64(f.UserID) == selfID,
		AvatarURL: nonEmpty(f.ProfilePicture),
	}
}

// messageFromHistory converts a history entry. IsSelf is taken from the
// server, which knows the session user.
func messageFromHistory(m rest.MessageInfo) ChatMessage {
	id := m.ID
	return ChatMessage{
		ID:        &id,
		Username:  m.Username,
		UserID:    m.UserID,
		Text:      m.Message,
		Timestamp: m.Timestamp,
		IsSelf:    m.IsSelf,
		AvatarURL: nonEmpty(m.ProfilePicture),
	}
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
