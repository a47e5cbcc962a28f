// Package cache keeps generated question sets so identical interview
// setups do not pay for a second model call.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/yoockh/intervue/internal/models"
)

type QuestionCache interface {
	Get(ctx context.Context, key string) (questions []string, hit bool, err error)
	Set(ctx context.Context, key string, questions []string, ttl time.Duration) error
}

// QuestionSetKey fingerprints everything that shapes a generated question
// set. The résumé is part of it, so personalised sets are never shared
// across candidates with different backgrounds.
func QuestionSetKey(meta models.RoleMeta, settings models.Settings) string {
	h := sha256.New()
	for _, part := range []string{
		strings.ToLower(strings.TrimSpace(meta.Company)),
		strings.ToLower(strings.TrimSpace(meta.Position)),
		strings.TrimSpace(meta.Description),
		strings.TrimSpace(meta.Requirements),
		strings.TrimSpace(meta.ResumeText),
		strconv.Itoa(settings.NumQuestions),
		settings.Difficulty,
		settings.Mode,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return "questions:" + hex.EncodeToString(h.Sum(nil))
}
