package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type healthCheckResponse struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
}

func (h *handlerImpl) HandleHealthCheck(c *gin.Context) {
	response := healthCheckResponse{
		Status:      "available",
		Environment: h.env,
		Version:     h.version,
	}

	err := h.storage.Ping(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("storage is unreachable")
		response.Status = "unavailable"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}
