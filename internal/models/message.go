package models

type MessageType int

const (
	User MessageType = iota
	Assistant
	Program
	System
)

// Message is one entry of the chat transcript. Assistant messages carry the
// prose portion of the response only; command markup never reaches the
// transcript.
type Message struct {
	Content string
	Type    MessageType
}
