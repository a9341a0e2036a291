package api

import (
	"errors"
	"net/http"

	"screener/services"
	"screener/utils"

	"github.com/gin-gonic/gin"
)

// APIHandler holds the services the HTTP handlers depend on.
type APIHandler struct {
	sessionManager  services.SessionManager
	responseService services.ResponseService
}

// NewAPIHandler creates a new APIHandler with necessary dependencies.
func NewAPIHandler(sessionManager services.SessionManager, responseService services.ResponseService) *APIHandler {
	return &APIHandler{
		sessionManager:  sessionManager,
		responseService: responseService,
	}
}

// RegisterRoutes mounts every endpoint under /api.
func RegisterRoutes(r *gin.Engine, handler *APIHandler) {
	apiGroup := r.Group("/api")
	{
		sessionGroup := apiGroup.Group("/sessions")
		{
			sessionGroup.POST("", handler.StartSessionHandler)
			sessionGroup.GET("/:sessionID", handler.GetSessionHandler)
			sessionGroup.POST("/:sessionID/answers", handler.RecordAnswerHandler)
			sessionGroup.POST("/:sessionID/next", handler.NextSectionHandler)
			sessionGroup.POST("/:sessionID/previous", handler.PreviousSectionHandler)
			sessionGroup.POST("/:sessionID/submit", handler.SubmitSessionHandler)
			sessionGroup.DELETE("/:sessionID", handler.DiscardSessionHandler)
		}

		responseGroup := apiGroup.Group("/responses")
		{
			responseGroup.GET("", handler.ListResponsesHandler)
			responseGroup.GET("/status", handler.ResponseStatusHandler)
			responseGroup.POST("", handler.RecordSingleResponseHandler)
			responseGroup.DELETE("", handler.DeleteAllResponsesHandler)
		}
	}
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, gin.H{
		"code":    status,
		"message": message,
		"data":    data,
	})
}

// userEmailFrom reads the caller's identity from the X-User-Email header, falling back to ?user_email=.
func userEmailFrom(c *gin.Context) string {
	if email := c.GetHeader("X-User-Email"); email != "" {
		return email
	}
	return c.Query("user_email")
}

// sendServiceError maps service errors onto HTTP statuses.
func sendServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		utils.SendJSONError(c, http.StatusNotFound, "Session not found.", err)
	case errors.Is(err, services.ErrAlreadyLastSection):
		utils.SendJSONError(c, http.StatusConflict, "Already on the last section.", err)
	case errors.Is(err, services.ErrSectionOutOfRange):
		utils.SendJSONError(c, http.StatusConflict, "Section index out of range.", err)
	case errors.Is(err, services.ErrStoreFailure):
		utils.SendJSONError(c, http.StatusServiceUnavailable, services.ErrStoreFailure.Error(), err)
	default:
		utils.SendJSONError(c, http.StatusInternalServerError, "", err)
	}
}
