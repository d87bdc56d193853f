package dto

import "time"

// RequestHelpRequest is the voice agent's request_help tool payload.
type RequestHelpRequest struct {
	Question      string `json:"question"`
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone"`
}

// RequestHelpResponse carries the tool outcome back to the agent. The agent
// speaks the result to the caller; errors are in-band statuses here.
type RequestHelpResponse struct {
	Status    string `json:"status"`
	Answer    string `json:"answer,omitempty"`
	RequestID int64  `json:"requestId,omitempty"`
	Message   string `json:"message,omitempty"`
}

// RoomTokenRequest payload for issuing a voice session token.
type RoomTokenRequest struct {
	Identity string `json:"identity"`
	Room     string `json:"room"`
}

// RoomTokenResponse carries the signed token.
type RoomTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
