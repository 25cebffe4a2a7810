package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/taskdeck/taskdeck/internal/llm"
	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/store"
	"github.com/taskdeck/taskdeck/internal/tools"
)

// scriptedCompleter replays canned responses in order and records every
// request it sees.
type scriptedCompleter struct {
	responses []*llm.Response
	errs      []error
	requests  []llm.Request
}

func (c *scriptedCompleter) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	c.requests = append(c.requests, req)
	i := len(c.requests) - 1
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	if i < len(c.responses) {
		return c.responses[i], nil
	}
	return &llm.Response{Content: "ok"}, nil
}

func newChatService(t *testing.T, completer llm.Completer) (*ChatService, store.Store) {
	t.Helper()
	st := newTestStore(t)
	users := NewUserService(st)
	taskSvc := NewTaskService(st)
	d := tools.NewDispatcher(taskSvc, zerolog.Nop())
	return NewChatService(st, users, completer, d, zerolog.Nop()), st
}

func TestSendMessagePersistsBothTurns(t *testing.T) {
	ctx := context.Background()
	c := &scriptedCompleter{responses: []*llm.Response{{Content: "Hello there"}}}
	svc, st := newChatService(t, c)

	res, err := svc.SendMessage(ctx, "u1", "u1@example.test", "hi")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if res.Message != "Hello there" || res.ConversationID == "" {
		t.Fatalf("unexpected result: %+v", res)
	}

	msgs, err := st.Messages().List(ctx, res.ConversationID, 0)
	if err != nil || len(msgs) != 2 {
		t.Fatalf("stored messages: n=%d err=%v", len(msgs), err)
	}
	if msgs[0].Role != model.RoleUser || msgs[0].Content != "hi" {
		t.Fatalf("first stored message: %+v", msgs[0])
	}
	if msgs[1].Role != model.RoleAssistant || msgs[1].Content != "Hello there" {
		t.Fatalf("second stored message: %+v", msgs[1])
	}
}

func TestSendMessageRebuildsHistoryFromStorage(t *testing.T) {
	ctx := context.Background()
	c := &scriptedCompleter{responses: []*llm.Response{{Content: "one"}, {Content: "two"}}}
	svc, _ := newChatService(t, c)

	if _, err := svc.SendMessage(ctx, "u1", "u1@example.test", "first"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if _, err := svc.SendMessage(ctx, "u1", "u1@example.test", "second"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	req := c.requests[1]
	// system prompt, two prior turns, then the new user message
	if len(req.Messages) != 4 {
		t.Fatalf("second request carries %d messages, want 4", len(req.Messages))
	}
	if req.Messages[0].Role != "system" {
		t.Fatalf("first message role %q, want system", req.Messages[0].Role)
	}
	if req.Messages[1].Content != "first" || req.Messages[2].Content != "one" {
		t.Fatalf("history not rebuilt: %+v", req.Messages[1:3])
	}
	if req.Messages[3].Content != "second" {
		t.Fatalf("new turn missing: %+v", req.Messages[3])
	}
}

func TestSendMessageReusesSingleConversation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newChatService(t, &scriptedCompleter{})

	a, err := svc.SendMessage(ctx, "u1", "u1@example.test", "hi")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	b, err := svc.SendMessage(ctx, "u1", "u1@example.test", "again")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if a.ConversationID != b.ConversationID {
		t.Fatalf("expected one conversation per user, got %s and %s", a.ConversationID, b.ConversationID)
	}
}

func TestSendMessageToolRound(t *testing.T) {
	ctx := context.Background()
	c := &scriptedCompleter{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{{
			ID:   "call_1",
			Type: "function",
			Function: llm.FunctionCall{
				Name:      tools.ToolAddTask,
				Arguments: `{"title":"Buy milk"}`,
			},
		}}},
		{Content: "Added \"Buy milk\" to your list."},
	}}
	svc, st := newChatService(t, c)

	res, err := svc.SendMessage(ctx, "u1", "u1@example.test", "add buy milk")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if res.Message != "Added \"Buy milk\" to your list." {
		t.Fatalf("unexpected reply: %q", res.Message)
	}

	// the tool actually ran
	tasks, err := st.Tasks().List(ctx, "u1", model.FilterAll)
	if err != nil || len(tasks) != 1 || tasks[0].Title != "Buy milk" {
		t.Fatalf("task not created via tool: n=%d err=%v", len(tasks), err)
	}

	if len(c.requests) != 2 {
		t.Fatalf("want 2 completion rounds, got %d", len(c.requests))
	}
	if len(c.requests[0].Tools) == 0 {
		t.Fatalf("first round should carry tool definitions")
	}
	if len(c.requests[1].Tools) != 0 {
		t.Fatalf("phrasing round must not carry tool definitions")
	}
	second := c.requests[1].Messages
	last := second[len(second)-1]
	if last.Role != "tool" || last.ToolCallID != "call_1" {
		t.Fatalf("tool result not threaded back: %+v", last)
	}
}

func TestSendMessageCompletionFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("not configured", func(t *testing.T) {
		svc, _ := newChatService(t, nil)
		res, err := svc.SendMessage(ctx, "u1", "u1@example.test", "hi")
		if err != nil || res.Message != replyNotConfigured {
			t.Fatalf("res=%+v err=%v", res, err)
		}
	})

	t.Run("first round fails", func(t *testing.T) {
		c := &scriptedCompleter{errs: []error{errors.New("boom")}}
		svc, st := newChatService(t, c)
		res, err := svc.SendMessage(ctx, "u1", "u1@example.test", "hi")
		if err != nil || res.Message != replyServiceTrouble {
			t.Fatalf("res=%+v err=%v", res, err)
		}
		// the apology is still persisted as the assistant turn
		msgs, _ := st.Messages().List(ctx, res.ConversationID, 0)
		if len(msgs) != 2 || msgs[1].Content != replyServiceTrouble {
			t.Fatalf("stored turns: %+v", msgs)
		}
	})

	t.Run("empty content", func(t *testing.T) {
		c := &scriptedCompleter{responses: []*llm.Response{{}}}
		svc, _ := newChatService(t, c)
		res, err := svc.SendMessage(ctx, "u1", "u1@example.test", "hi")
		if err != nil || res.Message != replyFallbackPlain {
			t.Fatalf("res=%+v err=%v", res, err)
		}
	})
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newChatService(t, &scriptedCompleter{responses: []*llm.Response{{Content: "sure"}}})

	convID, msgs, err := svc.History(ctx, "nobody", 0)
	if err != nil || convID != "" || len(msgs) != 0 {
		t.Fatalf("history for unknown user: id=%q n=%d err=%v", convID, len(msgs), err)
	}

	res, err := svc.SendMessage(ctx, "u1", "u1@example.test", "hi")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	convID, msgs, err = svc.History(ctx, "u1", 10)
	if err != nil || convID != res.ConversationID {
		t.Fatalf("history: id=%q err=%v", convID, err)
	}
	if len(msgs) != 2 || msgs[0].Role != model.RoleUser || msgs[1].Role != model.RoleAssistant {
		t.Fatalf("history turns: %+v", msgs)
	}

	// limit keeps the most recent turns, still in order
	convID, msgs, err = svc.History(ctx, "u1", 1)
	if err != nil || len(msgs) != 1 || msgs[0].Role != model.RoleAssistant {
		t.Fatalf("limited history: id=%q n=%d err=%v", convID, len(msgs), err)
	}
}
