package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/taskdeck/taskdeck/internal/llm"
	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/store"
	"github.com/taskdeck/taskdeck/internal/tools"
)

const systemPrompt = `You are a helpful todo assistant that manages tasks for users through natural language.

CRITICAL RULES:
1. ALWAYS use the provided tools for task operations - never simulate or hallucinate results
2. ALWAYS confirm actions after successful tool calls
3. ALWAYS ask for clarification if the task reference is ambiguous
4. Use list_tasks before delete/update if you need to find task IDs
5. NEVER expose internal errors - provide friendly error messages

TOOL MAPPING:
- "add", "create", "remember", "I need to", "remind me" -> add_task
- "show", "list", "what's on", "my tasks", "what do I have" -> list_tasks
- "done", "finished", "complete", "mark", "completed" -> complete_task
- "remove", "delete", "cancel", "get rid of" -> delete_task
- "change", "update", "rename", "modify", "edit" -> update_task

RESPONSE FORMAT:
- After add_task: "Task '[title]' added to your list."
- After list_tasks (with tasks): Format as numbered list
- After list_tasks (empty): "Your task list is empty."
- After complete_task: "Task '[title]' marked as completed."
- After delete_task: "Task '[title]' has been removed."
- After update_task: "Task updated from '[old]' to '[new]'."

CONVERSATION STYLE:
- Be friendly and conversational
- Keep responses concise
- If the user's message doesn't relate to tasks, respond helpfully but mention you're here to help with tasks`

// Canned replies for completion failures. Internal error detail never
// reaches the chat surface.
const (
	replyNotConfigured  = "I'm sorry, but the AI service is not configured. Please contact the administrator."
	replyServiceTrouble = "I'm having trouble connecting to my AI service. Please try again."
	replyFallbackPlain  = "I'm here to help with your tasks!"
	replyFallbackDone   = "Done!"
)

// DefaultHistoryLimit bounds history reads when the caller does not say.
const DefaultHistoryLimit = 50

// ChatService drives one conversation turn per request. The service holds no
// per-conversation state; every turn rebuilds the full context from storage.
type ChatService struct {
	store      store.Store
	users      *UserService
	completer  llm.Completer
	dispatcher *tools.Dispatcher
	log        zerolog.Logger
}

// NewChatService wires the chat orchestration. The completer is constructed
// once at process start and passed in; a nil completer means the completion
// service is not configured and every turn gets the canned apology.
func NewChatService(s store.Store, users *UserService, completer llm.Completer, d *tools.Dispatcher, log zerolog.Logger) *ChatService {
	return &ChatService{store: s, users: users, completer: completer, dispatcher: d, log: log}
}

// ChatResult is the outcome of one exchange.
type ChatResult struct {
	Message        string
	ConversationID string
}

// SendMessage runs one full exchange: persist the user turn, complete with
// tools, dispatch any tool calls, complete again for phrasing, persist the
// assistant turn. The user message is durably stored before the completion
// call is issued; a crash mid-turn leaves a resendable user message.
func (s *ChatService) SendMessage(ctx context.Context, userID, email, text string) (*ChatResult, error) {
	if err := s.users.EnsureExists(ctx, userID, email); err != nil {
		return nil, err
	}

	conv, err := s.resolveConversation(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Full history from storage, then the new turn. Never from memory.
	history, err := s.store.Messages().List(ctx, conv.ID, 0)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Messages().Create(ctx, &model.Message{
		ConversationID: conv.ID,
		Role:           model.RoleUser,
		Content:        text,
	}); err != nil {
		return nil, err
	}

	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: "system", Content: systemPrompt})
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: model.RoleUser, Content: text})

	reply := s.runCompletion(ctx, userID, msgs)

	if _, err := s.store.Messages().Create(ctx, &model.Message{
		ConversationID: conv.ID,
		Role:           model.RoleAssistant,
		Content:        reply,
	}); err != nil {
		return nil, err
	}

	return &ChatResult{Message: reply, ConversationID: conv.ID}, nil
}

// resolveConversation finds the user's single conversation, creating it
// lazily on the first message and bumping updated_at on reuse.
func (s *ChatService) resolveConversation(ctx context.Context, userID string) (*model.Conversation, error) {
	conv, err := s.store.Conversations().GetByOwner(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return s.store.Conversations().Create(ctx, &model.Conversation{OwnerID: userID})
	}
	if err != nil {
		return nil, err
	}
	if err := s.store.Conversations().Touch(ctx, conv.ID); err != nil {
		return nil, err
	}
	return conv, nil
}

// runCompletion performs the two-round tool-calling exchange. It never
// returns an error: completion failures become canned replies, and the
// assistant turn is persisted either way.
func (s *ChatService) runCompletion(ctx context.Context, userID string, msgs []llm.Message) string {
	if s.completer == nil {
		s.log.Warn().Msg("completion service not configured")
		return replyNotConfigured
	}

	first, err := s.completer.Complete(ctx, llm.Request{Messages: msgs, Tools: tools.Definitions()})
	if err != nil {
		s.log.Error().Err(err).Msg("completion failed")
		return replyServiceTrouble
	}

	if len(first.ToolCalls) == 0 {
		if first.Content == "" {
			return replyFallbackPlain
		}
		return first.Content
	}

	// Execute every requested tool, then ask for the user-facing phrasing.
	// The second round carries no tool definitions, so it cannot recurse.
	msgs = append(msgs, llm.Message{
		Role:      model.RoleAssistant,
		Content:   first.Content,
		ToolCalls: first.ToolCalls,
	})
	for _, tc := range first.ToolCalls {
		env := s.dispatcher.DispatchJSON(ctx, userID, tc.Function.Name, tc.Function.Arguments)
		msgs = append(msgs, llm.Message{
			Role:       "tool",
			Content:    env.JSON(),
			ToolCallID: tc.ID,
		})
	}

	second, err := s.completer.Complete(ctx, llm.Request{Messages: msgs})
	if err != nil {
		s.log.Error().Err(err).Msg("completion failed on phrasing round")
		return replyServiceTrouble
	}
	if second.Content == "" {
		return replyFallbackDone
	}
	return second.Content
}

// History returns the stored conversation for the user. A user who has never
// chatted gets an empty history with an empty conversation id, not an error.
func (s *ChatService) History(ctx context.Context, userID string, limit int) (string, []*model.Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	conv, err := s.store.Conversations().GetByOwner(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return "", []*model.Message{}, nil
	}
	if err != nil {
		return "", nil, err
	}
	msgs, err := s.store.Messages().List(ctx, conv.ID, limit)
	if err != nil {
		return "", nil, err
	}
	if msgs == nil {
		msgs = []*model.Message{}
	}
	return conv.ID, msgs, nil
}
