package http

import (
	"net/http"

	"omnipost/usecase"

	"github.com/gin-gonic/gin"
)

type IAccountHandler interface {
	List(c *gin.Context)
	Delete(c *gin.Context)
	Reset(c *gin.Context)
}

type AccountHandler struct {
	workspace usecase.IWorkspace
}

func NewAccountHandler(workspace usecase.IWorkspace) IAccountHandler {
	return &AccountHandler{workspace: workspace}
}

func (h *AccountHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"accounts": h.workspace.Accounts()})
}

func (h *AccountHandler) Delete(c *gin.Context) {
	if err := h.workspace.Disconnect(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AccountHandler) Reset(c *gin.Context) {
	removed := h.workspace.ResetConnections(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
