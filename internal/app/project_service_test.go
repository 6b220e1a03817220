package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentboard/internal/model"
)

func newProjectFixture(t *testing.T, ttl time.Duration) (*ProjectService, *fakeProjectStore, *fakeSessionStore, string) {
	t.Helper()

	dir := t.TempDir()
	projects := newFakeProjectStore()
	sessions := newFakeSessionStore()
	require.NoError(t, sessions.Create(&model.Session{UserID: 1, Title: "chat", Status: model.SessionActive, AgentSessionID: "remote-1"}))

	svc := NewProjectService(projects, sessions, dir, "download-secret", ttl)
	return svc, projects, sessions, dir
}

func TestCreateProjectChecksSessionOwnership(t *testing.T) {
	svc, _, _, _ := newProjectFixture(t, time.Minute)

	project, err := svc.CreateProject(CreateProjectInput{
		UserID:      1,
		SessionID:   1,
		Name:        "Landing page",
		FileName:    "landing.zip",
		ContentType: "application/zip",
		SizeBytes:   1024,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, project.StorageKey)
	assert.Equal(t, ".zip", filepath.Ext(project.StorageKey))

	_, err = svc.CreateProject(CreateProjectInput{
		UserID:    2,
		SessionID: 1,
		Name:      "Stolen",
		FileName:  "x.zip",
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.CreateProject(CreateProjectInput{
		UserID:    1,
		SessionID: 1,
		Name:      "Traversal",
		FileName:  "../../etc/passwd",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSignAndResolveDownload(t *testing.T) {
	svc, _, _, dir := newProjectFixture(t, time.Minute)

	project, err := svc.CreateProject(CreateProjectInput{
		UserID:    1,
		SessionID: 1,
		Name:      "Report",
		FileName:  "report.pdf",
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, project.StorageKey), []byte("pdf bytes"), 0o600))

	token, expiresAt, err := svc.SignDownload(1, project.ID)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	resolved, path, err := svc.ResolveDownload(token)
	require.NoError(t, err)
	assert.Equal(t, project.ID, resolved.ID)
	assert.Equal(t, filepath.Join(dir, project.StorageKey), path)

	_, _, err = svc.ResolveDownload(token + "tampered")
	assert.ErrorIs(t, err, ErrInvalidDownloadLink)
}

func TestResolveDownloadRejectsExpiredToken(t *testing.T) {
	svc, _, _, _ := newProjectFixture(t, time.Millisecond)

	project, err := svc.CreateProject(CreateProjectInput{
		UserID:    1,
		SessionID: 1,
		Name:      "Report",
		FileName:  "report.pdf",
	})
	require.NoError(t, err)

	token, _, err := svc.SignDownload(1, project.ID)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, _, err = svc.ResolveDownload(token)
	assert.ErrorIs(t, err, ErrInvalidDownloadLink)
}

func TestResolveDownloadRejectsDeletedProject(t *testing.T) {
	svc, _, _, _ := newProjectFixture(t, time.Minute)

	project, err := svc.CreateProject(CreateProjectInput{
		UserID:    1,
		SessionID: 1,
		Name:      "Report",
		FileName:  "report.pdf",
	})
	require.NoError(t, err)

	token, _, err := svc.SignDownload(1, project.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProject(1, project.ID))

	_, _, err = svc.ResolveDownload(token)
	assert.ErrorIs(t, err, ErrInvalidDownloadLink)
}

func TestListProjectsFiltersBySession(t *testing.T) {
	svc, _, sessions, _ := newProjectFixture(t, time.Minute)
	require.NoError(t, sessions.Create(&model.Session{UserID: 1, Title: "other", Status: model.SessionActive, AgentSessionID: "remote-2"}))

	for _, sessionID := range []uint{1, 1, 2} {
		_, err := svc.CreateProject(CreateProjectInput{
			UserID:    1,
			SessionID: sessionID,
			Name:      "artifact",
			FileName:  "a.txt",
		})
		require.NoError(t, err)
	}

	all, err := svc.ListProjects(1, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	scoped, err := svc.ListProjects(1, 1)
	require.NoError(t, err)
	assert.Len(t, scoped, 2)
}
