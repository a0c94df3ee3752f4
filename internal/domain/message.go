package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Message struct {
	ID        string    `json:"id"`
	AuthorID  UserID    `json:"authorId"`
	ReceiptID UserID    `json:"receiptId"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func (m Message) Validate() error {
	if strings.TrimSpace(string(m.AuthorID)) == "" {
		return errors.New("author is required")
	}
	if strings.TrimSpace(string(m.ReceiptID)) == "" {
		return errors.New("receipt is required")
	}
	if strings.TrimSpace(m.Content) == "" {
		return errors.New("content is required")
	}
	return nil
}

// Encode returns the payload form written to message logs.
func (m Message) Encode() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}
	return string(data), nil
}

func DecodeMessage(payload string) (Message, error) {
	var m Message
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	return m, nil
}
