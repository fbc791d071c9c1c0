package chat

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"passenger-client/devserver"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestConversationAgainstDevServer(t *testing.T) {
	srv := httptest.NewServer(devserver.New(devserver.Options{Chat: true}, quiet).Handler(nil))
	defer srv.Close()

	conv := NewConversation(NewClient(srv.URL, 5*time.Second, quiet), quiet)
	if msg, err := conv.Say(context.Background(), "   "); msg != nil || err != nil {
		t.Fatalf("blank input produced %v, %v", msg, err)
	}

	reply, err := conv.Say(context.Background(), "How do I book a trip?")
	if err != nil {
		t.Fatal(err)
	}
	if reply == nil || reply.Sender != FromBot || reply.Text == "" {
		t.Fatalf("reply = %+v", reply)
	}
	msgs := conv.Messages()
	if len(msgs) != 2 || msgs[0].Sender != FromUser || msgs[0].ID == msgs[1].ID {
		t.Fatalf("transcript = %+v", msgs)
	}
}

func TestOnlyFirstReplyIsKept(t *testing.T) {
	senders := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		senders <- body["sender"]
		json.NewEncoder(w).Encode([]Reply{{Text: "first"}, {Text: "second"}})
	}))
	defer srv.Close()

	conv := NewConversation(NewClient(srv.URL, time.Second, quiet), quiet)
	reply, err := conv.Say(context.Background(), "hi")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Text != "first" || len(conv.Messages()) != 2 {
		t.Fatalf("reply = %+v, messages = %+v", reply, conv.Messages())
	}
	if gotSender := <-senders; gotSender != conv.Sender() {
		t.Errorf("sender = %q, want %q", gotSender, conv.Sender())
	}
}

func TestFailureKeepsUserMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	conv := NewConversation(NewClient(srv.URL, time.Second, quiet), quiet)
	if _, err := conv.Say(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}
	if msgs := conv.Messages(); len(msgs) != 1 || msgs[0].Text != "hello" {
		t.Fatalf("transcript = %+v", msgs)
	}
}
