package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/intervue/internal/services"
	"github.com/yoockh/intervue/internal/turn"
	"github.com/yoockh/intervue/internal/utils"
)

type TurnHandler struct {
	turns     services.TurnService
	logs      services.TurnLogService
	maxUpload int64
}

func NewTurnHandler(turns services.TurnService, logs services.TurnLogService, maxUploadBytes int64) *TurnHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &TurnHandler{turns: turns, logs: logs, maxUpload: maxUploadBytes}
}

type SubmitTurnRequest struct {
	Answer string `json:"answer"`
}

func (h *TurnHandler) Submit(c *gin.Context) {
	const op = "TurnHandler.Submit"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req SubmitTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}
	answer, err := turn.ParseAnswer(req.Answer)
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "answer is required", err))
		return
	}

	reply, err := h.turns.Submit(c.Request.Context(), c.Param("id"), userID, answer)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

type audioTurnResponse struct {
	turn.Reply
	Transcript string `json:"transcript"`
}

// SubmitAudio takes a multipart "audio" file and optional "language".
func (h *TurnHandler) SubmitAudio(c *gin.Context) {
	const op = "TurnHandler.SubmitAudio"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	audio, err := readFormFile(c, op, "audio", h.maxUpload)
	if err != nil {
		writeError(c, err)
		return
	}
	if len(audio) == 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing multipart field 'audio'", nil))
		return
	}

	reply, text, err := h.turns.SubmitAudio(c.Request.Context(), c.Param("id"), userID, audio, c.PostForm("language"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, audioTurnResponse{Reply: reply, Transcript: text})
}

func (h *TurnHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	rows, err := h.logs.List(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
