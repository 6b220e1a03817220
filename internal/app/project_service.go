package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"agentboard/internal/model"
)

var (
	ErrProjectNotFound     = errors.New("project not found")
	ErrInvalidDownloadLink = errors.New("invalid or expired download link")
)

type ProjectService struct {
	projectStore   ProjectStore
	sessionStore   SessionStore
	artifactDir    string
	downloadSecret string
	downloadTTL    time.Duration
}

type CreateProjectInput struct {
	UserID      uint
	SessionID   uint
	Name        string
	FileName    string
	ContentType string
	SizeBytes   int64
	PreviewURL  string
}

type downloadClaims struct {
	ProjectID  uint   `json:"project_id"`
	UserID     uint   `json:"user_id"`
	StorageKey string `json:"storage_key"`
	jwt.RegisteredClaims
}

func NewProjectService(
	projectStore ProjectStore,
	sessionStore SessionStore,
	artifactDir string,
	downloadSecret string,
	downloadTTL time.Duration,
) *ProjectService {
	if downloadTTL <= 0 {
		downloadTTL = 15 * time.Minute
	}
	return &ProjectService{
		projectStore:   projectStore,
		sessionStore:   sessionStore,
		artifactDir:    artifactDir,
		downloadSecret: downloadSecret,
		downloadTTL:    downloadTTL,
	}
}

func (s *ProjectService) CreateProject(input CreateProjectInput) (*model.Project, error) {
	if input.UserID == 0 || input.SessionID == 0 {
		return nil, ErrInvalidInput
	}
	name := strings.TrimSpace(input.Name)
	fileName := strings.TrimSpace(input.FileName)
	if name == "" || fileName == "" || fileName != filepath.Base(fileName) {
		return nil, ErrInvalidInput
	}

	session, err := s.sessionStore.GetByIDAndUserID(input.SessionID, input.UserID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	project := &model.Project{
		SessionID:   input.SessionID,
		UserID:      input.UserID,
		Name:        name,
		FileName:    fileName,
		ContentType: strings.TrimSpace(input.ContentType),
		SizeBytes:   input.SizeBytes,
		StorageKey:  uuid.NewString() + filepath.Ext(fileName),
		PreviewURL:  strings.TrimSpace(input.PreviewURL),
	}
	if err := s.projectStore.Create(project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) ListProjects(userID, sessionID uint) ([]model.Project, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.projectStore.ListByUserID(userID, sessionID)
}

func (s *ProjectService) GetProject(userID, projectID uint) (*model.Project, error) {
	if userID == 0 || projectID == 0 {
		return nil, ErrInvalidInput
	}
	project, err := s.projectStore.GetByIDAndUserID(projectID, userID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	return project, nil
}

func (s *ProjectService) DeleteProject(userID, projectID uint) error {
	if _, err := s.GetProject(userID, projectID); err != nil {
		return err
	}
	return s.projectStore.DeleteByIDAndUserID(projectID, userID)
}

// SignDownload issues a short-lived token authorizing one artifact download.
func (s *ProjectService) SignDownload(userID, projectID uint) (string, time.Time, error) {
	project, err := s.GetProject(userID, projectID)
	if err != nil {
		return "", time.Time{}, err
	}

	expiresAt := time.Now().Add(s.downloadTTL)
	claims := downloadClaims{
		ProjectID:  project.ID,
		UserID:     userID,
		StorageKey: project.StorageKey,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.downloadSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign download token failed: %w", err)
	}
	return signed, expiresAt, nil
}

// ResolveDownload verifies a download token and returns the project plus the
// on-disk artifact path.
func (s *ProjectService) ResolveDownload(tokenString string) (*model.Project, string, error) {
	claims := &downloadClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.downloadSecret), nil
	})
	if err != nil || !token.Valid || claims.ProjectID == 0 {
		return nil, "", ErrInvalidDownloadLink
	}

	project, err := s.projectStore.GetByIDAndUserID(claims.ProjectID, claims.UserID)
	if err != nil {
		return nil, "", err
	}
	if project == nil || project.StorageKey != claims.StorageKey {
		return nil, "", ErrInvalidDownloadLink
	}

	return project, filepath.Join(s.artifactDir, project.StorageKey), nil
}
