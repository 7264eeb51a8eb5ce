package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storybook-backend/internal/models"
)

const ReviewProjectKey = "review_project"

// ProjectResolver resolves a review token to a project. Implemented by the
// database client; faked in tests.
type ProjectResolver interface {
	GetProjectByReviewToken(token string) (*models.Project, error)
}

// ReviewTokenMiddleware authenticates the customer review portal. The token
// is an opaque capability: knowing it grants access to exactly one project.
func ReviewTokenMiddleware(resolver ProjectResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if resolver == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database not available"})
			c.Abort()
			return
		}

		token := c.Param("review_token")
		if token == "" {
			token = c.GetHeader("X-Review-Token")
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing review token"})
			c.Abort()
			return
		}
		if _, err := uuid.Parse(token); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid review token"})
			c.Abort()
			return
		}

		project, err := resolver.GetProjectByReviewToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid review token"})
			c.Abort()
			return
		}

		c.Set(ReviewProjectKey, project)
		c.Next()
	}
}

// ReviewProject pulls the resolved project out of the gin context.
func ReviewProject(c *gin.Context) (*models.Project, bool) {
	value, exists := c.Get(ReviewProjectKey)
	if !exists {
		return nil, false
	}
	project, ok := value.(*models.Project)
	return project, ok
}
