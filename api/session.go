package api

import (
	"net/http"

	"screener/utils"

	"github.com/gin-gonic/gin"
)

// StartSessionHandler starts a questionnaire session.
// POST /api/sessions
// Request body: { "user_email": "string" }
func (h *APIHandler) StartSessionHandler(c *gin.Context) {
	var req struct {
		UserEmail string `json:"user_email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}

	view, err := h.sessionManager.Start(req.UserEmail)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Session started", view)
}

// GetSessionHandler returns the current state of a session.
// GET /api/sessions/:sessionID
func (h *APIHandler) GetSessionHandler(c *gin.Context) {
	view, err := h.sessionManager.View(c.Param("sessionID"))
	if err != nil {
		sendServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, "Session retrieved", view)
}

// RecordAnswerHandler records (or overwrites) one answer.
// POST /api/sessions/:sessionID/answers
// Request body: { "question_id": int, "answer": int }
func (h *APIHandler) RecordAnswerHandler(c *gin.Context) {
	var req struct {
		QuestionID *int `json:"question_id" binding:"required"`
		Answer     *int `json:"answer" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}

	view, err := h.sessionManager.RecordAnswer(c.Param("sessionID"), *req.QuestionID, *req.Answer)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, "Answer recorded", view)
}

// NextSectionHandler moves to the next section. Completeness is advisory and
// reported in the view; only the last-section boundary is enforced.
// POST /api/sessions/:sessionID/next
func (h *APIHandler) NextSectionHandler(c *gin.Context) {
	view, err := h.sessionManager.Next(c.Param("sessionID"))
	if err != nil {
		sendServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, "Moved to next section", view)
}

// PreviousSectionHandler moves to the previous section; a no-op on the first one.
// POST /api/sessions/:sessionID/previous
func (h *APIHandler) PreviousSectionHandler(c *gin.Context) {
	view, err := h.sessionManager.Previous(c.Param("sessionID"))
	if err != nil {
		sendServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, "Moved to previous section", view)
}

// SubmitSessionHandler persists all answers and closes the session.
// On a store failure the session is kept and the client may retry.
// POST /api/sessions/:sessionID/submit
func (h *APIHandler) SubmitSessionHandler(c *gin.Context) {
	sessionID := c.Param("sessionID")
	if err := h.sessionManager.Submit(c.Request.Context(), sessionID); err != nil {
		sendServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, "Responses saved", gin.H{"session_id": sessionID})
}

// DiscardSessionHandler drops a session without saving.
// DELETE /api/sessions/:sessionID
func (h *APIHandler) DiscardSessionHandler(c *gin.Context) {
	if err := h.sessionManager.Discard(c.Param("sessionID")); err != nil {
		sendServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, "Session discarded", nil)
}
