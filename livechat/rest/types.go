package rest

// MessageInfo represents a single message in the history.
type MessageInfo struct {
	ID             int64   `json:"id"`
	Username       string  `json:"username"`
	UserID         int64   `json:"user_id"`
	Message        string  `json:"message"`
	Timestamp      string  `json:"timestamp"` // "2006-01-02 15:04:05", server local time
	IsSelf         bool    `json:"is_self"`
	ProfilePicture *string `json:"profile_picture"`
}

// MessagesResponse is the body of the history endpoint, oldest first.
type MessagesResponse struct {
	Messages []MessageInfo `json:"messages"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
