package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"agentboard/internal/app"
	"agentboard/internal/transport/http/response"
)

type ProjectHandler struct {
	projectService *app.ProjectService
}

type CreateProjectRequest struct {
	SessionID   uint   `json:"session_id" binding:"required,gt=0"`
	Name        string `json:"name" binding:"required,max=256"`
	FileName    string `json:"file_name" binding:"required,max=256"`
	ContentType string `json:"content_type" binding:"max=128"`
	SizeBytes   int64  `json:"size_bytes" binding:"gte=0"`
	PreviewURL  string `json:"preview_url" binding:"max=512"`
}

func NewProjectHandler(projectService *app.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

func (h *ProjectHandler) Create(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	project, err := h.projectService.CreateProject(app.CreateProjectInput{
		UserID:      userID,
		SessionID:   req.SessionID,
		Name:        req.Name,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		PreviewURL:  req.PreviewURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "create project failed")
		}
		return
	}

	response.OK(c, project)
}

func (h *ProjectHandler) List(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var sessionID uint
	if raw := c.Query("session_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid session_id")
			return
		}
		sessionID = uint(parsed)
	}

	projects, err := h.projectService.ListProjects(userID, sessionID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list projects failed")
		return
	}

	response.OK(c, projects)
}

func (h *ProjectHandler) Get(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	projectID, ok := pathID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid project id")
		return
	}

	project, err := h.projectService.GetProject(userID, projectID)
	if err != nil {
		h.projectError(c, err, "get project failed")
		return
	}

	response.OK(c, project)
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	projectID, ok := pathID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid project id")
		return
	}

	if err := h.projectService.DeleteProject(userID, projectID); err != nil {
		h.projectError(c, err, "delete project failed")
		return
	}

	response.OK(c, gin.H{"deleted_project_id": projectID})
}

func (h *ProjectHandler) DownloadURL(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	projectID, ok := pathID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid project id")
		return
	}

	token, expiresAt, err := h.projectService.SignDownload(userID, projectID)
	if err != nil {
		h.projectError(c, err, "sign download failed")
		return
	}

	response.OK(c, gin.H{
		"url":        "/api/v1/projects/download?token=" + token,
		"expires_at": expiresAt,
	})
}

// Download has no auth middleware; the signed token is the credential.
func (h *ProjectHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusForbidden, response.CodeDownloadInvalid, "missing download token")
		return
	}

	project, path, err := h.projectService.ResolveDownload(token)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidDownloadLink):
			response.Error(c, http.StatusForbidden, response.CodeDownloadInvalid, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "download failed")
		}
		return
	}

	if project.ContentType != "" {
		c.Header("Content-Type", project.ContentType)
	}
	c.FileAttachment(path, project.FileName)
}

func (h *ProjectHandler) projectError(c *gin.Context, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrProjectNotFound):
		response.Error(c, http.StatusNotFound, response.CodeProjectNotFound, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallbackMsg)
	}
}
