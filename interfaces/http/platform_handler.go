package http

import (
	"net/http"

	"omnipost/domain/dto"
	"omnipost/domain/model"
	"omnipost/usecase"

	"github.com/gin-gonic/gin"
)

type IPlatformHandler interface {
	List(c *gin.Context)
}

type PlatformHandler struct {
	workspace   usecase.IWorkspace
	connections usecase.IConnectionUsecase
}

func NewPlatformHandler(workspace usecase.IWorkspace, connections usecase.IConnectionUsecase) IPlatformHandler {
	return &PlatformHandler{workspace: workspace, connections: connections}
}

func (h *PlatformHandler) List(c *gin.Context) {
	connected := h.workspace.ConnectedPlatforms()
	catalog := model.Catalog()
	out := make([]dto.PlatformRes, 0, len(catalog))
	for _, profile := range catalog {
		route := model.Route(profile.ID)
		_, pending := h.connections.Pending(profile.ID)
		out = append(out, dto.PlatformRes{
			PlatformProfile: profile,
			Provider:        route.Provider,
			BlockReason:     route.BlockReason,
			Connected:       connected[profile.ID],
			Pending:         pending,
		})
	}
	c.JSON(http.StatusOK, gin.H{"platforms": out})
}
