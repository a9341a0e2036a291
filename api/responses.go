package api

import (
	"net/http"

	"screener/utils"

	"github.com/gin-gonic/gin"
)

// ListResponsesHandler lists stored responses: the caller's when an identity is
// supplied, newest first; otherwise every record.
// GET /api/responses
func (h *APIHandler) ListResponsesHandler(c *gin.Context) {
	email := userEmailFrom(c)
	if email == "" {
		records, err := h.responseService.ListAll()
		if err != nil {
			utils.SendJSONError(c, http.StatusInternalServerError, "Failed to fetch responses.", err)
			return
		}
		respond(c, http.StatusOK, "Responses retrieved", records)
		return
	}

	records, err := h.responseService.ListForUser(email)
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to fetch responses.", err)
		return
	}
	respond(c, http.StatusOK, "Responses retrieved", records)
}

// ResponseStatusHandler reports not_started / partially_completed / completed for the caller.
// GET /api/responses/status
func (h *APIHandler) ResponseStatusHandler(c *gin.Context) {
	email := userEmailFrom(c)
	if email == "" {
		utils.SendJSONError(c, http.StatusBadRequest, "User email is required.", nil)
		return
	}
	progress, err := h.responseService.Status(email)
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to compute questionnaire status.", err)
		return
	}
	respond(c, http.StatusOK, "Status retrieved", progress)
}

// RecordSingleResponseHandler stores one answer without a session.
// POST /api/responses
// Request body: { "question_id": int, "answer": int }
func (h *APIHandler) RecordSingleResponseHandler(c *gin.Context) {
	email := userEmailFrom(c)
	if email == "" {
		utils.SendJSONError(c, http.StatusBadRequest, "User email is required.", nil)
		return
	}
	var req struct {
		QuestionID *int `json:"question_id" binding:"required"`
		Answer     *int `json:"answer" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}

	record, err := h.responseService.RecordSingle(email, *req.QuestionID, *req.Answer)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Response saved", record)
}

// DeleteAllResponsesHandler wipes the response store.
// DELETE /api/responses
func (h *APIHandler) DeleteAllResponsesHandler(c *gin.Context) {
	n, err := h.responseService.DeleteAll()
	if err != nil {
		sendServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, "Responses deleted", gin.H{"deleted": n})
}
