package http

import (
	"net/http"

	"omnipost/domain/dto"
	"omnipost/usecase"

	"github.com/gin-gonic/gin"
)

type IPostHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Retry(c *gin.Context)
	Stream(c *gin.Context)
}

// StreamServer is anything that can hold an SSE stream open.
type StreamServer interface {
	Serve(c *gin.Context)
}

type PostHandler struct {
	workspace usecase.IWorkspace
	stream    StreamServer
}

func NewPostHandler(workspace usecase.IWorkspace, stream StreamServer) IPostHandler {
	return &PostHandler{workspace: workspace, stream: stream}
}

func (h *PostHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"posts": h.workspace.Posts()})
}

func (h *PostHandler) Get(c *gin.Context) {
	post, err := h.workspace.Post(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PostRes{Post: post})
}

func (h *PostHandler) Create(c *gin.Context) {
	var req dto.CreatePostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	input, err := req.ToInput()
	if err != nil {
		respondError(c, err)
		return
	}
	if req.Mode == dto.PublishModeQueue {
		post := h.workspace.Queue(c.Request.Context(), input)
		c.JSON(http.StatusCreated, dto.PostRes{Post: post})
		return
	}
	post, result := h.workspace.PublishNow(c.Request.Context(), input)
	c.JSON(http.StatusCreated, dto.PostRes{Post: post, Result: &result})
}

func (h *PostHandler) Retry(c *gin.Context) {
	post, result, err := h.workspace.Retry(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PostRes{Post: post, Result: &result})
}

func (h *PostHandler) Stream(c *gin.Context) {
	if h.stream == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "event stream not configured"})
		return
	}
	h.stream.Serve(c)
}
