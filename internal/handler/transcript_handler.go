package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studentms/internal/middleware"
	"github.com/noah-isme/studentms/internal/service"
	"github.com/noah-isme/studentms/pkg/response"
)

// TranscriptHandler exposes CGPA and per-semester GPA.
type TranscriptHandler struct {
	transcripts *service.TranscriptService
}

// NewTranscriptHandler constructs TranscriptHandler.
func NewTranscriptHandler(transcripts *service.TranscriptService) *TranscriptHandler {
	return &TranscriptHandler{transcripts: transcripts}
}

// Get godoc
// @Summary Student transcript
// @Description CGPA over all semesters plus per-semester GPA, newest semester first.
// @Tags Transcripts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/transcript [get]
func (h *TranscriptHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	transcript, err := h.transcripts.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, transcript.FromCache)
	response.JSON(c, http.StatusOK, transcript, nil, middleware.ExtractMeta(c))
}
