package livechat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// TimestampLayout is the wall-clock layout used by the history endpoint and
// assigned to frames on receipt.
const TimestampLayout = "2006-01-02 15:04:05"

// OutboundFrame is the payload client -> server.
type OutboundFrame struct {
	Message  string `json:"message"`
	Username string `json:"username"`
	UserID   UserID `json:"user_id"`
}

// InboundFrame is the payload server -> client. The server does not send a
// timestamp; one is assigned on receipt.
type InboundFrame struct {
	Message        string  `json:"message"`
	Username       string  `json:"username"`
	UserID         UserID  `json:"user_id"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
}

// UserID is a numeric user id that tolerates being sent as a JSON string.
type UserID int64

func (u *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*u = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*u = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("user_id %q: %w", s, err)
		}
		*u = UserID(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*u = UserID(n)
	return nil
}

// decodeFrame decodes one inbound frame.
func decodeFrame(data []byte) (InboundFrame, error) {
	var f InboundFrame
	err := json.Unmarshal(data, &f)
	return f, err
}
