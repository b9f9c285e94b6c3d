package http

import (
	"html/template"
	"net/http"
	"strings"

	"omnipost/domain/dto"
	"omnipost/domain/model"
	"omnipost/usecase"

	"github.com/gin-gonic/gin"
)

type IConnectionHandler interface {
	Begin(c *gin.Context)
	Finish(c *gin.Context)
	Callback(c *gin.Context)
}

type ConnectionHandler struct {
	workspace   usecase.IWorkspace
	redirectURI string
}

func NewConnectionHandler(workspace usecase.IWorkspace, redirectURI string) IConnectionHandler {
	return &ConnectionHandler{workspace: workspace, redirectURI: redirectURI}
}

func (h *ConnectionHandler) Begin(c *gin.Context) {
	platform, err := model.ParsePlatform(c.Param("platform"))
	if err != nil {
		respondError(c, err)
		return
	}
	start, err := h.workspace.Connect(c.Request.Context(), platform)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, start)
}

func (h *ConnectionHandler) Finish(c *gin.Context) {
	platform, err := model.ParsePlatform(c.Param("platform"))
	if err != nil {
		respondError(c, err)
		return
	}
	var req dto.FinishConnectionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	account, err := h.workspace.CompleteConnection(c.Request.Context(), platform, req.CallbackURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

var callbackPage = template.Must(template.New("callback").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>OmniPost</title></head>
<body>
<h1>Authorization received</h1>
<p>Copy this URL and paste it back into OmniPost to finish connecting.</p>
<textarea readonly rows="4" cols="100" onclick="this.select()">{{.}}</textarea>
</body></html>`))

// Callback only shows the redirected URL; finishing happens when the user pastes it back.
func (h *ConnectionHandler) Callback(c *gin.Context) {
	full := strings.TrimRight(h.redirectURI, "?")
	if q := c.Request.URL.RawQuery; q != "" {
		full += "?" + q
	}
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	_ = callbackPage.Execute(c.Writer, full)
}
