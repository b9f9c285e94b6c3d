package http

import (
	"net/http"

	"omnipost/domain/dto"
	"omnipost/domain/model"
	"omnipost/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

const (
	ErrorUnmarshal = "Error while unmarshal"
)

// StatusFor maps an error category onto an HTTP status.
func StatusFor(err error) int {
	switch model.Classify(err) {
	case model.CategoryProtocol:
		return http.StatusBadRequest
	case model.CategoryConfiguration:
		return http.StatusUnprocessableEntity
	case model.CategoryTransient:
		return http.StatusBadGateway
	case model.CategoryNotFound:
		return http.StatusNotFound
	case model.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := StatusFor(err)
	category := model.Classify(err)
	lg := logger.GetLogger().WithField("path", c.FullPath()).WithField("category", category).WithField("error", err.Error())
	if status >= http.StatusInternalServerError {
		lg.Error("Request failed")
	} else {
		lg.Warn("Request rejected")
	}
	c.JSON(status, dto.ErrorRes{Error: err.Error(), Category: string(category)})
}

func respondBindError(c *gin.Context, err error) {
	logger.GetLogger().WithField("error", err).Warn(ErrorUnmarshal)
	c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: err.Error(), Category: string(model.CategoryProtocol)})
}
