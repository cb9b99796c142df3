package domain

// MaxChatMessageLength caps relayed chat text in runes. Longer text is
// truncated, not rejected.
const MaxChatMessageLength = 1000

// ChatMessage is a relayed chat payload. The ID and timestamp are supplied by
// the sender and forwarded untouched so both sides correlate on the same
// values; the relay never persists the message itself.
type ChatMessage struct {
	ID        string
	RoomID    string
	SenderID  string
	Sender    string
	Text      string
	Timestamp string
}

// Truncate enforces the relay's length cap on the message text.
func (m *ChatMessage) Truncate() {
	runes := []rune(m.Text)
	if len(runes) > MaxChatMessageLength {
		m.Text = string(runes[:MaxChatMessageLength])
	}
}
