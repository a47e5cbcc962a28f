package handlers

import (
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/yoockh/intervue/internal/models"
	"github.com/yoockh/intervue/internal/services"
	"github.com/yoockh/intervue/internal/utils"
)

type InterviewHandler struct {
	svc       services.InterviewService
	maxUpload int64
}

func NewInterviewHandler(svc services.InterviewService, maxUploadBytes int64) *InterviewHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 50 << 20
	}
	return &InterviewHandler{svc: svc, maxUpload: maxUploadBytes}
}

// CreateInterviewRequest binds from JSON or multipart form fields.
type CreateInterviewRequest struct {
	Company      string `json:"company" form:"company"`
	Position     string `json:"position" form:"position"`
	Description  string `json:"description" form:"description"`
	Requirements string `json:"requirements" form:"requirements"`
	ResumeText   string `json:"resumeText" form:"resumeText"`
	NumQuestions int    `json:"numQuestions" form:"numQuestions"`
	Difficulty   string `json:"difficulty" form:"difficulty"`
	Mode         string `json:"mode" form:"mode"`
}

type CreateInterviewResponse struct {
	InterviewID   string `json:"interviewId"`
	FirstQuestion string `json:"firstQuestion"`
}

func (h *InterviewHandler) Create(c *gin.Context) {
	const op = "InterviewHandler.Create"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateInterviewRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	// plain-text résumé upload; other formats are ignored
	resume, err := readFormFile(c, op, "resume", 5<<20)
	if err != nil {
		writeError(c, err)
		return
	}
	if len(resume) > 0 && strings.HasPrefix(mimetype.Detect(resume).String(), "text/plain") && req.ResumeText == "" {
		req.ResumeText = strings.TrimSpace(string(resume))
	}

	sess, err := h.svc.Create(c.Request.Context(), services.CreateInterviewInput{
		OwnerID: userID,
		RoleMeta: models.RoleMeta{
			Company:      strings.TrimSpace(req.Company),
			Position:     strings.TrimSpace(req.Position),
			Description:  req.Description,
			Requirements: req.Requirements,
			ResumeText:   req.ResumeText,
		},
		Settings: models.Settings{
			NumQuestions: req.NumQuestions,
			Difficulty:   req.Difficulty,
			Mode:         req.Mode,
		},
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, CreateInterviewResponse{
		InterviewID:   sess.ID.Hex(),
		FirstQuestion: sess.Questions[0],
	})
}

func (h *InterviewHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	rows, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *InterviewHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sess, err := h.svc.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// AdminGet reads any interview regardless of owner.
func (h *InterviewHandler) AdminGet(c *gin.Context) {
	sess, err := h.svc.GetAny(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// Complete accepts multipart (video, transcript file, transcriptText) or a
// JSON body {transcript, mediaRef}.
func (h *InterviewHandler) Complete(c *gin.Context) {
	const op = "InterviewHandler.Complete"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var in services.CompleteInterviewInput
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		video, err := readFormFile(c, op, "video", h.maxUpload)
		if err != nil {
			writeError(c, err)
			return
		}
		in.Recording = video

		transcript, err := readFormFile(c, op, "transcript", 5<<20)
		if err != nil {
			writeError(c, err)
			return
		}
		switch {
		case len(transcript) > 0:
			if !strings.HasPrefix(mimetype.Detect(transcript).String(), "text/") {
				writeError(c, utils.E(utils.CodeInvalidArgument, op, "transcript must be a text file", nil))
				return
			}
			in.Transcript = string(transcript)
		case c.PostForm("transcriptText") != "":
			in.Transcript = c.PostForm("transcriptText")
		default:
			in.Transcript = c.PostForm("transcript")
		}
	} else if c.Request.ContentLength != 0 {
		var body struct {
			Transcript string  `json:"transcript"`
			MediaRef   *string `json:"mediaRef"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
			return
		}
		in.Transcript, in.MediaRef = body.Transcript, body.MediaRef
	}

	sess, err := h.svc.Complete(c.Request.Context(), c.Param("id"), userID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Interview completed",
		"status":   sess.Status,
		"mediaRef": sess.MediaRef,
	})
}

func (h *InterviewHandler) Recording(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	url, err := h.svc.RecordingURL(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
