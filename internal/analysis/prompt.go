package analysis

import (
	"fmt"
	"strings"

	"github.com/yoockh/intervue/internal/models"
)

const coachPersona = "You are an expert technical interviewer and coach."

const analysisTemplate = `You are an experienced technical interviewer and coach. Given the following interview transcript, produce:
1) Numeric scores 1-5 (integers) for: Communication (clarity), Technical Accuracy, Problem Solving / Depth, Structure (how answers are organized), Confidence / Presence, and Nonverbal (if video used, otherwise set N/A).
2) A concise paragraph summary (2-3 sentences).
3) 4 actionable bullet improvements prioritized (what to practice next).
4) 3 strengths observed.

Return JSON ONLY with keys: scores, summary, improvements, strengths.

%sTranscript:
%s
`

const schemaBlock = `{
  "scores": { "communication": <int|null>, "technical": <int|null>, "structure": <int|null>, "confidence": <int|null>, "nonverbal": <int|null|"N/A"> },
  "summary": "%s",
  "improvements": ["string", ...],
  "strengths": ["string", ...]
}`

// Transcript returns the text the coach should grade: the stored transcript
// when present, else the conversation flattened to "ROLE: content" lines.
func Transcript(s *models.InterviewSession) string {
	if s.Transcript != nil && strings.TrimSpace(*s.Transcript) != "" {
		return *s.Transcript
	}
	lines := make([]string, 0, len(s.Context))
	for _, m := range s.Context {
		lines = append(lines, strings.ToUpper(string(m.Role))+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

// Messages builds the initial analysis request for a session.
func Messages(s *models.InterviewSession) []models.Message {
	resume := ""
	if r := strings.TrimSpace(s.RoleMeta.ResumeText); r != "" {
		resume = "Candidate resume summary:\n" + r + "\n\n"
	}
	return []models.Message{
		{Role: models.RoleSystem, Content: coachPersona},
		{Role: models.RoleUser, Content: fmt.Sprintf(analysisTemplate, resume, Transcript(s))},
	}
}

func reformatMessages(llmText string, terse bool) []models.Message {
	if terse {
		body := "You will ONLY output valid JSON (no markdown, no commentary). Extract these fields from the input or return null if not found:\n\n" +
			fmt.Sprintf(schemaBlock, "<2-3 sentence summary>") +
			"\n\nNow reformat the input below into that JSON only:\n---\n" + llmText + "\n---\nReturn only the JSON."
		return []models.Message{
			{Role: models.RoleSystem, Content: "You are a JSON extraction assistant."},
			{Role: models.RoleUser, Content: body},
		}
	}
	body := "The previous output may contain commentary or broken formatting. PLEASE RETURN A VALID JSON OBJECT ONLY with this schema:\n\n" +
		fmt.Sprintf(schemaBlock, "<string up to 300 chars>") +
		"\n\nIf a field cannot be determined, use null (or \"N/A\" for nonverbal). Do not add any other fields or text. Here is the original output:\n---\n" +
		llmText + "\n---\nReturn the JSON only."
	return []models.Message{
		{Role: models.RoleSystem, Content: "You are a strict JSON formatter."},
		{Role: models.RoleUser, Content: body},
	}
}
