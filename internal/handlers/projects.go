package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storybook-backend/internal/models"
	"storybook-backend/internal/status"
	"storybook-backend/internal/supabase"
)

type ProjectsHandler struct {
	dbClient      *supabase.DatabaseClient
	storageClient *supabase.StorageClient
}

func NewProjectsHandler(dbClient *supabase.DatabaseClient, storageClient *supabase.StorageClient) *ProjectsHandler {
	return &ProjectsHandler{
		dbClient:      dbClient,
		storageClient: storageClient,
	}
}

func (h *ProjectsHandler) CreateProject(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	project, err := h.dbClient.CreateProject(req.BookTitle, req.AuthorName, req.AuthorEmail,
		req.IllustrationAspectRatio, req.IllustrationTextIntegration)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to create project",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, toProjectResponse(project, nil, nil, status.RoleAdmin))
}

func (h *ProjectsHandler) ListProjects(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	projects, err := h.dbClient.ListProjects()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list projects",
			Message: err.Error(),
		})
		return
	}

	summaries := make([]models.ProjectSummary, len(projects))
	for i, p := range projects {
		summaries[i] = models.ProjectSummary{
			ID:        p.ID.String(),
			BookTitle: p.BookTitle,
			Status:    status.Normalize(p.Status).String(),
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		}
	}

	c.JSON(http.StatusOK, models.ProjectListResponse{Projects: summaries})
}

func (h *ProjectsHandler) GetProject(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}

	project, err := h.dbClient.GetProject(projectID)
	if err != nil {
		respondError(c, "failed to get project", err)
		return
	}

	pages, err := h.dbClient.ListPages(projectID)
	if err != nil {
		respondError(c, "failed to list pages", err)
		return
	}
	characters, err := h.dbClient.ListCharacters(projectID)
	if err != nil {
		respondError(c, "failed to list characters", err)
		return
	}

	c.JSON(http.StatusOK, toProjectResponse(project, pages, characters, status.RoleAdmin))
}

func (h *ProjectsHandler) DeleteProject(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}

	if _, err := h.dbClient.GetProject(projectID); err != nil {
		respondError(c, "failed to get project", err)
		return
	}

	if h.storageClient != nil {
		if err := h.storageClient.DeleteProjectFiles(projectID); err != nil {
			// Storage cleanup failure never blocks the delete; the rows
			// cascade regardless.
		}
	}

	if err := h.dbClient.DeleteProject(projectID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to delete project",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "project deleted successfully"})
}
