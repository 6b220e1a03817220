package app

import (
	"context"
	"time"

	"agentboard/internal/agent"
	"agentboard/internal/model"
)

// Store interfaces consumed by the services. The GORM repositories in
// internal/repository satisfy them; tests substitute in-memory fakes.

type UserStore interface {
	Create(user *model.User) error
	GetByUsername(username string) (*model.User, error)
	GetByEmail(email string) (*model.User, error)
	GetByID(id uint) (*model.User, error)
	UpdateProfile(user *model.User) error
	IncrementSessionsTotal(userID uint, delta int64) error
}

type SessionStore interface {
	Create(session *model.Session) error
	ListByUserID(userID uint, status string) ([]model.Session, error)
	GetByIDAndUserID(sessionID, userID uint) (*model.Session, error)
	Update(session *model.Session) error
	DeleteByIDAndUserID(sessionID, userID uint) error
}

type MessageStore interface {
	ListBySessionID(sessionID uint, limit int) ([]model.Message, error)
	DeleteBySessionID(sessionID uint) error
}

type ProjectStore interface {
	Create(project *model.Project) error
	ListByUserID(userID, sessionID uint) ([]model.Project, error)
	GetByIDAndUserID(projectID, userID uint) (*model.Project, error)
	DeleteByIDAndUserID(projectID, userID uint) error
}

type AsyncMessagePublisher interface {
	Publish(ctx context.Context, msg model.Message) error
}

type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID uint) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, sessionID uint, messages []model.Message) error
	Invalidate(ctx context.Context, sessionID uint) error
	IsDirty(ctx context.Context, sessionID uint) (bool, error)
}

type UsageCounterStore interface {
	Get(ctx context.Context, userID uint, day time.Time) (int64, error)
	Increment(ctx context.Context, userID uint, day time.Time) (int64, error)
}

// AgentRunner is the remote agent runtime boundary.
type AgentRunner interface {
	EnsureSession(ctx context.Context, userID, sessionID string) error
	Run(ctx context.Context, userID, sessionID, text string) (agent.Reply, error)
	RunStream(ctx context.Context, userID, sessionID, text string, onChunk func(string) error) (agent.Reply, error)
}

// ChatMetrics is satisfied by the Prometheus collector; a nil recorder is
// tolerated everywhere.
type ChatMetrics interface {
	RecordAgentLatency(d time.Duration)
	RecordAgentFallback()
	RecordQuotaRejection()
}
