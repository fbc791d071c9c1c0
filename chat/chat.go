// Package chat talks to the Thizzy assistant over its REST webhook.
package chat

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"passenger-client/api"
)

const webhookPath = "/webhooks/rest/webhook"

type Sender string

const (
	FromUser Sender = "user"
	FromBot  Sender = "bot"
)

type Message struct {
	ID     string
	Text   string
	Sender Sender
}

type Reply struct {
	RecipientID string `json:"recipient_id"`
	Text        string `json:"text"`
}

type Client struct {
	api *api.Client
}

// NewClient points at the assistant host, which is separate from the
// booking backend.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{api: api.NewClient(baseURL, timeout, logger)}
}

func (c *Client) Send(ctx context.Context, sender, text string) ([]Reply, error) {
	var replies []Reply
	err := c.api.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   webhookPath,
		Body:   map[string]string{"sender": sender, "message": text},
	}, &replies)
	return replies, err
}

// Conversation keeps the transcript of one chat. It is safe for concurrent
// use.
type Conversation struct {
	client *Client
	sender string
	logger *slog.Logger

	mu       sync.Mutex
	messages []Message
	seq      int
}

func NewConversation(client *Client, logger *slog.Logger) *Conversation {
	if logger == nil {
		logger = slog.Default()
	}
	return &Conversation{client: client, sender: uuid.NewString(), logger: logger}
}

// Sender is the id this conversation reports to the assistant.
func (c *Conversation) Sender() string {
	return c.sender
}

// Say appends the user's message, asks the assistant and appends its first
// reply. Blank input is ignored. On failure the user's message stays in the
// transcript and the error is returned.
func (c *Conversation) Say(ctx context.Context, text string) (*Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	c.append(text, FromUser)

	replies, err := c.client.Send(ctx, c.sender, text)
	if err != nil {
		c.logger.Error("chatbot error", "err", err)
		return nil, err
	}
	if len(replies) == 0 {
		return nil, nil
	}
	msg := c.append(replies[0].Text, FromBot)
	return &msg, nil
}

func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

func (c *Conversation) append(text string, from Sender) Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	msg := Message{ID: strconv.Itoa(c.seq), Text: text, Sender: from}
	c.messages = append(c.messages, msg)
	return msg
}
