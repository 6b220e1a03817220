package app

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"agentboard/internal/agent"
	"agentboard/internal/model"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionNotActive  = errors.New("session is not active")
	ErrSessionCompleted  = errors.New("completed session cannot change status")
	ErrInvalidTransition = errors.New("invalid session status change")
	ErrMessageEmpty      = errors.New("message content is empty")
	ErrMessageEnqueue    = errors.New("message enqueue failed")
)

type ChatService struct {
	sessionStore SessionStore
	messageStore MessageStore
	userStore    UserStore
	publisher    AsyncMessagePublisher
	historyCache HistoryCache
	usage        *UsageService
	agentClient  AgentRunner
	fallbackText string
	metrics      ChatMetrics
}

type CreateSessionInput struct {
	UserID uint
	Title  string
}

type UpdateSessionInput struct {
	UserID    uint
	SessionID uint
	Title     string
	Status    string
}

type SendMessageInput struct {
	UserID    uint
	SessionID uint
	Content   string
}

type SendMessageResult struct {
	Messages []model.MessageView `json:"messages"`
	Fallback bool                `json:"fallback"`
}

func NewChatService(
	sessionStore SessionStore,
	messageStore MessageStore,
	userStore UserStore,
	publisher AsyncMessagePublisher,
	historyCache HistoryCache,
	usage *UsageService,
	agentClient AgentRunner,
	fallbackText string,
	metrics ChatMetrics,
) *ChatService {
	if strings.TrimSpace(fallbackText) == "" {
		fallbackText = "The assistant is temporarily unavailable. Please try again in a moment."
	}
	return &ChatService{
		sessionStore: sessionStore,
		messageStore: messageStore,
		userStore:    userStore,
		publisher:    publisher,
		historyCache: historyCache,
		usage:        usage,
		agentClient:  agentClient,
		fallbackText: fallbackText,
		metrics:      metrics,
	}
}

func (s *ChatService) CreateSession(input CreateSessionInput) (*model.Session, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "New Chat"
	}

	session := &model.Session{
		UserID:         input.UserID,
		Title:          title,
		Status:         model.SessionActive,
		AgentSessionID: uuid.NewString(),
	}
	if err := s.sessionStore.Create(session); err != nil {
		return nil, err
	}
	_ = s.userStore.IncrementSessionsTotal(input.UserID, 1)
	return session, nil
}

func (s *ChatService) ListSessions(userID uint, status string) ([]model.Session, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	if status != "" && !model.ValidSessionStatus(status) {
		return nil, ErrInvalidInput
	}
	return s.sessionStore.ListByUserID(userID, status)
}

func (s *ChatService) GetSession(userID, sessionID uint) (*model.Session, error) {
	if userID == 0 || sessionID == 0 {
		return nil, ErrInvalidInput
	}
	session, err := s.sessionStore.GetByIDAndUserID(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// UpdateSession renames a session and/or moves it between statuses.
// Allowed transitions: active<->archived, active->completed. completed is
// terminal.
func (s *ChatService) UpdateSession(input UpdateSessionInput) (*model.Session, error) {
	session, err := s.GetSession(input.UserID, input.SessionID)
	if err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		session.Title = title
	}

	if status := strings.TrimSpace(input.Status); status != "" && status != session.Status {
		if !model.ValidSessionStatus(status) {
			return nil, ErrInvalidInput
		}
		if session.Status == model.SessionCompleted {
			return nil, ErrSessionCompleted
		}
		if session.Status == model.SessionArchived && status == model.SessionCompleted {
			return nil, ErrInvalidTransition
		}
		session.Status = status
	}

	if err := s.sessionStore.Update(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ChatService) DeleteSession(userID, sessionID uint) error {
	if userID == 0 || sessionID == 0 {
		return ErrInvalidInput
	}
	session, err := s.sessionStore.GetByIDAndUserID(sessionID, userID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if err := s.messageStore.DeleteBySessionID(sessionID); err != nil {
		return err
	}
	if err := s.sessionStore.DeleteByIDAndUserID(sessionID, userID); err != nil {
		return err
	}
	if s.historyCache != nil {
		_ = s.historyCache.Invalidate(context.Background(), sessionID)
	}
	return nil
}

// SendMessage forwards one user message to the agent runtime and returns the
// user and assistant messages. Runtime failures degrade to the configured
// fallback reply instead of failing the request.
func (s *ChatService) SendMessage(ctx context.Context, input SendMessageInput) (*SendMessageResult, error) {
	session, user, content, err := s.prepareSend(ctx, input)
	if err != nil {
		return nil, err
	}

	userMessage, err := s.acceptUserMessage(ctx, session, user, content)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	reply, runErr := s.agentClient.Run(ctx, agentUserID(user.ID), session.AgentSessionID, content)
	if s.metrics != nil {
		s.metrics.RecordAgentLatency(time.Since(started))
	}

	assistantMessage, fallback := s.buildAssistantMessage(session, user, reply, runErr)
	if err := s.publisher.Publish(ctx, *assistantMessage); err != nil {
		return nil, ErrMessageEnqueue
	}

	return &SendMessageResult{
		Messages: []model.MessageView{userMessage.View(), assistantMessage.View()},
		Fallback: fallback,
	}, nil
}

// StreamMessage is SendMessage over SSE: onChunk receives assistant text
// deltas as the runtime produces them.
func (s *ChatService) StreamMessage(ctx context.Context, input SendMessageInput, onChunk func(string) error) (*SendMessageResult, error) {
	session, user, content, err := s.prepareSend(ctx, input)
	if err != nil {
		return nil, err
	}

	userMessage, err := s.acceptUserMessage(ctx, session, user, content)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	reply, runErr := s.agentClient.RunStream(ctx, agentUserID(user.ID), session.AgentSessionID, content, onChunk)
	if s.metrics != nil {
		s.metrics.RecordAgentLatency(time.Since(started))
	}
	if runErr == nil && strings.TrimSpace(reply.Text) == "" {
		runErr = errors.New("empty stream reply")
	}

	assistantMessage, fallback := s.buildAssistantMessage(session, user, reply, runErr)
	if fallback && onChunk != nil {
		// The client saw no chunks; deliver the fallback text as one.
		_ = onChunk(assistantMessage.Content)
	}
	if err := s.publisher.Publish(ctx, *assistantMessage); err != nil {
		return nil, ErrMessageEnqueue
	}

	return &SendMessageResult{
		Messages: []model.MessageView{userMessage.View(), assistantMessage.View()},
		Fallback: fallback,
	}, nil
}

func (s *ChatService) GetHistory(userID, sessionID uint, limit int) ([]model.Message, error) {
	if userID == 0 || sessionID == 0 {
		return nil, ErrInvalidInput
	}

	session, err := s.sessionStore.GetByIDAndUserID(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	ctx := context.Background()
	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, sessionID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, sessionID); cacheErr == nil && hit {
				return trimMessages(cached, limit), nil
			}
		}
	}

	messages, err := s.messageStore.ListBySessionID(sessionID, limit)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, sessionID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, sessionID, messages)
		}
	}
	return messages, nil
}

// GetUsage reports the caller's quota standing for today.
func (s *ChatService) GetUsage(ctx context.Context, userID uint) (UsageSnapshot, error) {
	if userID == 0 || s.usage == nil {
		return UsageSnapshot{}, ErrInvalidInput
	}

	user, err := s.userStore.GetByID(userID)
	if err != nil {
		return UsageSnapshot{}, err
	}
	if user == nil {
		return UsageSnapshot{}, ErrUserNotFound
	}
	return s.usage.Snapshot(ctx, user)
}

func (s *ChatService) prepareSend(ctx context.Context, input SendMessageInput) (*model.Session, *model.User, string, error) {
	if input.UserID == 0 || input.SessionID == 0 {
		return nil, nil, "", ErrInvalidInput
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, nil, "", ErrMessageEmpty
	}

	session, err := s.sessionStore.GetByIDAndUserID(input.SessionID, input.UserID)
	if err != nil {
		return nil, nil, "", err
	}
	if session == nil {
		return nil, nil, "", ErrSessionNotFound
	}
	if session.Status != model.SessionActive {
		return nil, nil, "", ErrSessionNotActive
	}

	user, err := s.userStore.GetByID(input.UserID)
	if err != nil {
		return nil, nil, "", err
	}
	if user == nil {
		return nil, nil, "", ErrUserNotFound
	}

	if s.usage != nil {
		if err := s.usage.Allow(ctx, user); err != nil {
			if errors.Is(err, ErrQuotaExceeded) && s.metrics != nil {
				s.metrics.RecordQuotaRejection()
			}
			return nil, nil, "", err
		}
	}
	return session, user, content, nil
}

func (s *ChatService) acceptUserMessage(ctx context.Context, session *model.Session, user *model.User, content string) (*model.Message, error) {
	if s.publisher == nil {
		return nil, ErrMessageEnqueue
	}

	userMessage := &model.Message{
		SessionID: session.ID,
		UserID:    user.ID,
		Role:      model.RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}

	if s.historyCache != nil {
		_ = s.historyCache.Invalidate(ctx, session.ID)
	}
	if err := s.publisher.Publish(ctx, *userMessage); err != nil {
		return nil, ErrMessageEnqueue
	}
	if err := s.agentClient.EnsureSession(ctx, agentUserID(user.ID), session.AgentSessionID); err != nil {
		// The run call will surface the failure; it degrades to the
		// fallback reply there.
		_ = err
	}
	if s.usage != nil {
		if err := s.usage.Consume(ctx, user.ID); err != nil {
			_ = err
		}
	}
	return userMessage, nil
}

func (s *ChatService) buildAssistantMessage(session *model.Session, user *model.User, reply agent.Reply, runErr error) (*model.Message, bool) {
	fallback := runErr != nil
	text := strings.TrimSpace(reply.Text)
	if fallback || text == "" {
		fallback = true
		text = s.fallbackText
		if s.metrics != nil {
			s.metrics.RecordAgentFallback()
		}
	}

	assistantMessage := &model.Message{
		SessionID: session.ID,
		UserID:    user.ID,
		Role:      model.RoleAssistant,
		Content:   text,
		CreatedAt: time.Now(),
	}
	if !fallback {
		assistantMessage.SetSuggestedActions(reply.SuggestedActions)
	} else {
		assistantMessage.SetMetadata(map[string]interface{}{"fallback": true})
	}
	return assistantMessage, fallback
}

func trimMessages(messages []model.Message, limit int) []model.Message {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[len(messages)-limit:]
}

func agentUserID(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}
