package server

import (
	"net/http"
	"time"

	"imagebot/internal/core"

	"github.com/gin-gonic/gin"
)

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"models":  s.botConfig.Models.Len(),
		"allowed": s.allow.Len(),
	})
}

// listModels serves the advertised model list as an OpenAI-compatible response.
func (s *Server) listModels(c *gin.Context) {
	c.JSON(http.StatusOK, buildModelListResponse(s.botConfig.Models.Snapshot(), time.Now().Unix()))
}

func buildModelListResponse(ids []string, created int64) core.ModelListResponse {
	data := make([]core.ModelInfo, 0, len(ids))
	for _, id := range ids {
		data = append(data, core.ModelInfo{
			ID:      id,
			Object:  core.ModelObjectType,
			Created: created,
			OwnedBy: core.ModelOwner,
		})
	}
	return core.ModelListResponse{Object: core.ModelListObjectType, Data: data}
}
