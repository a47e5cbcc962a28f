package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/intervue/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(utils.HTTPStatus(err), apiErrorOf(err))
}

// apiErrorOf exposes only the safe message of an AppError.
func apiErrorOf(err error) APIError {
	var ae *utils.AppError
	if errors.As(err, &ae) && ae.Message != "" {
		return APIError{Code: ae.Code, Message: ae.Message}
	}
	code := utils.CodeOf(err)
	return APIError{Code: code, Message: http.StatusText(utils.HTTPStatus(err))}
}

func requireUserID(c *gin.Context) (string, bool) {
	if v, ok := c.Get("user_id"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}

	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "unauthorized", nil))
	return "", false
}

// readFormFile reads an optional multipart file. A missing field returns
// nil without error.
func readFormFile(c *gin.Context, op, field string, maxBytes int64) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, utils.E(utils.CodeInvalidArgument, op, "invalid multipart field '"+field+"'", err)
	}
	return readFileHeader(op, fh, maxBytes)
}

func readFileHeader(op string, fh *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, utils.E(utils.CodeInvalidArgument, op, "file too large", nil)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to open upload", err)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to read upload", err)
	}
	return b, nil
}
