package domain

import (
	"encoding/json"

	"github.com/pion/webrtc/v3"
)

// Inbound event names.
const (
	EventStartMatch  = "start_match"
	EventOffer       = "webrtc_offer"
	EventAnswer      = "webrtc_answer"
	EventCandidate   = "webrtc_ice_candidate"
	EventSendMessage = "send_message"
	EventNext        = "next"
	EventLeave       = "leave"
)

// Outbound event names.
const (
	EventConnected        = "connected"
	EventMatched          = "matched"
	EventWaiting          = "waiting"
	EventReceiveMessage   = "receive_message"
	EventMessageDelivered = "message_delivered"
	EventPartnerLeft      = "partner_left"
	EventError            = "error"
)

// Envelope is the wire frame for inbound traffic: an event name plus a raw
// payload decoded per event.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Event is an outbound frame. Data is marshalled as-is.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type StartMatchData struct {
	Mode     string `json:"mode"`
	Username string `json:"username"`
}

// OfferData and friends carry the negotiation payloads typed as the pion
// structures, which covers the standard offer/answer/candidate shapes.
// Fields outside those structures are dropped at decode time.
type OfferData struct {
	RoomID string                     `json:"roomId,omitempty"`
	Offer  *webrtc.SessionDescription `json:"offer"`
}

type AnswerData struct {
	RoomID string                     `json:"roomId,omitempty"`
	Answer *webrtc.SessionDescription `json:"answer"`
}

type CandidateData struct {
	RoomID    string                   `json:"roomId,omitempty"`
	Candidate *webrtc.ICECandidateInit `json:"candidate"`
}

type SendMessageData struct {
	RoomID    string `json:"roomId"`
	MessageID string `json:"messageId"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type RoomRefData struct {
	RoomID string `json:"roomId"`
}

type PartnerData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type MatchedData struct {
	RoomID  string      `json:"roomId"`
	Partner PartnerData `json:"partner"`
}

type WaitingData struct {
	Message   string `json:"message"`
	QueueSize int    `json:"queueSize"`
}

type ReceiveMessageData struct {
	MessageID      string `json:"messageId"`
	Text           string `json:"text"`
	SenderID       string `json:"senderId"`
	SenderUsername string `json:"senderUsername"`
	Timestamp      string `json:"timestamp"`
}

type MessageDeliveredData struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type MessageData struct {
	Message string `json:"message"`
}

type ConnectedData struct {
	Message      string `json:"message"`
	ConnectionID string `json:"socketId"`
	Timestamp    string `json:"timestamp"`
}

func ErrorEvent(message string) Event {
	return Event{Event: EventError, Data: MessageData{Message: message}}
}
