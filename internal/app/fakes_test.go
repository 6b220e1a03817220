package app

import (
	"context"
	"errors"
	"time"

	"agentboard/internal/agent"
	"agentboard/internal/model"
)

type fakeUserStore struct {
	users  map[uint]*model.User
	nextID uint
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uint]*model.User{}, nextID: 1}
}

func (s *fakeUserStore) Create(user *model.User) error {
	user.ID = s.nextID
	s.nextID++
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *fakeUserStore) GetByUsername(username string) (*model.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) GetByEmail(email string) (*model.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) GetByID(id uint) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (s *fakeUserStore) UpdateProfile(user *model.User) error {
	stored, ok := s.users[user.ID]
	if !ok {
		return errors.New("no such user")
	}
	stored.DisplayName = user.DisplayName
	stored.Settings = user.Settings
	return nil
}

func (s *fakeUserStore) IncrementSessionsTotal(userID uint, delta int64) error {
	if u, ok := s.users[userID]; ok {
		u.SessionsTotal += delta
	}
	return nil
}

type fakeSessionStore struct {
	sessions map[uint]*model.Session
	nextID   uint
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[uint]*model.Session{}, nextID: 1}
}

func (s *fakeSessionStore) Create(session *model.Session) error {
	session.ID = s.nextID
	s.nextID++
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *fakeSessionStore) ListByUserID(userID uint, status string) ([]model.Session, error) {
	var out []model.Session
	for _, sess := range s.sessions {
		if sess.UserID != userID {
			continue
		}
		if status != "" && sess.Status != status {
			continue
		}
		out = append(out, *sess)
	}
	return out, nil
}

func (s *fakeSessionStore) GetByIDAndUserID(sessionID, userID uint) (*model.Session, error) {
	sess, ok := s.sessions[sessionID]
	if !ok || sess.UserID != userID {
		return nil, nil
	}
	copied := *sess
	return &copied, nil
}

func (s *fakeSessionStore) Update(session *model.Session) error {
	stored, ok := s.sessions[session.ID]
	if !ok {
		return errors.New("no such session")
	}
	stored.Title = session.Title
	stored.Status = session.Status
	return nil
}

func (s *fakeSessionStore) DeleteByIDAndUserID(sessionID, userID uint) error {
	sess, ok := s.sessions[sessionID]
	if ok && sess.UserID == userID {
		delete(s.sessions, sessionID)
	}
	return nil
}

type fakeMessageStore struct {
	messages []model.Message
}

func (s *fakeMessageStore) ListBySessionID(sessionID uint, limit int) ([]model.Message, error) {
	var out []model.Message
	for _, m := range s.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *fakeMessageStore) DeleteBySessionID(sessionID uint) error {
	var kept []model.Message
	for _, m := range s.messages {
		if m.SessionID != sessionID {
			kept = append(kept, m)
		}
	}
	s.messages = kept
	return nil
}

type fakeProjectStore struct {
	projects map[uint]*model.Project
	nextID   uint
}

func newFakeProjectStore() *fakeProjectStore {
	return &fakeProjectStore{projects: map[uint]*model.Project{}, nextID: 1}
}

func (s *fakeProjectStore) Create(project *model.Project) error {
	project.ID = s.nextID
	s.nextID++
	project.CreatedAt = time.Now()
	copied := *project
	s.projects[project.ID] = &copied
	return nil
}

func (s *fakeProjectStore) ListByUserID(userID, sessionID uint) ([]model.Project, error) {
	var out []model.Project
	for _, p := range s.projects {
		if p.UserID != userID {
			continue
		}
		if sessionID > 0 && p.SessionID != sessionID {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *fakeProjectStore) GetByIDAndUserID(projectID, userID uint) (*model.Project, error) {
	p, ok := s.projects[projectID]
	if !ok || p.UserID != userID {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (s *fakeProjectStore) DeleteByIDAndUserID(projectID, userID uint) error {
	p, ok := s.projects[projectID]
	if ok && p.UserID == userID {
		delete(s.projects, projectID)
	}
	return nil
}

type fakePublisher struct {
	published []model.Message
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, msg model.Message) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, msg)
	return nil
}

type fakeHistoryCache struct {
	histories map[uint][]model.Message
	dirty     map[uint]bool
	deletes   int
}

func newFakeHistoryCache() *fakeHistoryCache {
	return &fakeHistoryCache{
		histories: map[uint][]model.Message{},
		dirty:     map[uint]bool{},
	}
}

func (c *fakeHistoryCache) GetHistory(_ context.Context, sessionID uint) ([]model.Message, bool, error) {
	msgs, ok := c.histories[sessionID]
	return msgs, ok, nil
}

func (c *fakeHistoryCache) SetHistory(_ context.Context, sessionID uint, messages []model.Message) error {
	c.histories[sessionID] = messages
	return nil
}

func (c *fakeHistoryCache) Invalidate(_ context.Context, sessionID uint) error {
	c.dirty[sessionID] = true
	delete(c.histories, sessionID)
	c.deletes++
	return nil
}

func (c *fakeHistoryCache) IsDirty(_ context.Context, sessionID uint) (bool, error) {
	return c.dirty[sessionID], nil
}

type fakeUsageCounter struct {
	counts map[uint]int64
}

func newFakeUsageCounter() *fakeUsageCounter {
	return &fakeUsageCounter{counts: map[uint]int64{}}
}

func (c *fakeUsageCounter) Get(_ context.Context, userID uint, _ time.Time) (int64, error) {
	return c.counts[userID], nil
}

func (c *fakeUsageCounter) Increment(_ context.Context, userID uint, _ time.Time) (int64, error) {
	c.counts[userID]++
	return c.counts[userID], nil
}

type fakeAgent struct {
	reply          agent.Reply
	runErr         error
	ensureErr      error
	ensureCalls    int
	runCalls       int
	streamChunks   []string
	lastText       string
	lastSessionKey string
}

func (a *fakeAgent) EnsureSession(_ context.Context, _ string, sessionID string) error {
	a.ensureCalls++
	a.lastSessionKey = sessionID
	return a.ensureErr
}

func (a *fakeAgent) Run(_ context.Context, _ string, sessionID, text string) (agent.Reply, error) {
	a.runCalls++
	a.lastSessionKey = sessionID
	a.lastText = text
	return a.reply, a.runErr
}

func (a *fakeAgent) RunStream(_ context.Context, _ string, sessionID, text string, onChunk func(string) error) (agent.Reply, error) {
	a.runCalls++
	a.lastSessionKey = sessionID
	a.lastText = text
	if a.runErr != nil {
		return agent.Reply{}, a.runErr
	}
	for _, chunk := range a.streamChunks {
		if err := onChunk(chunk); err != nil {
			return agent.Reply{}, err
		}
	}
	return a.reply, nil
}
