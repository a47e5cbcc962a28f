package turn

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yoockh/intervue/internal/models"
)

// Canned texts used when the model cannot be reached.
const (
	ExpandFollowUp    = "Could you expand on that a bit more, with a concrete example?"
	RephrasePrefix    = "Let me rephrase: "
	GenericClarify    = "Take your time. Which part of the question would you like me to clarify?"
	GenericNextPrompt = "Let's keep going. Tell me about a recent project you are proud of and the role you played in it."
)

var completionRe = regexp.MustCompile(`(?i)conclud|that concludes|end of interview`)

// IsCompletion reports whether an interviewer reply signals the end.
func IsCompletion(reply string) bool {
	return completionRe.MatchString(reply)
}

// BuildSystemPrompt renders the fixed interviewer prompt stored as the first
// context entry of every session.
func BuildSystemPrompt(meta models.RoleMeta, settings models.Settings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert technical interviewer for the role of %s at %s.\n", meta.Position, meta.Company)
	fmt.Fprintf(&b, "Job description: %s\n", meta.Description)
	fmt.Fprintf(&b, "Requirements: %s.\n", orDefault(meta.Requirements, "None specified"))
	fmt.Fprintf(&b, "Candidate background: %s.\n", orDefault(meta.ResumeText, "No resume provided"))

	var opts []string
	if settings.NumQuestions > 0 {
		opts = append(opts, fmt.Sprintf("%d questions", settings.NumQuestions))
	}
	if settings.Difficulty != "" {
		opts = append(opts, "difficulty="+settings.Difficulty)
	}
	if settings.Mode != "" {
		opts = append(opts, "mode="+settings.Mode)
	}
	fmt.Fprintf(&b, "Interview settings: %s\n\n", strings.Join(opts, ", "))

	b.WriteString("Ask one question at a time, wait for the candidate's answer, and allow clarifications.\n")
	b.WriteString(`When ready to move on, ask the next question. If you decide the interview is complete, say "That concludes our interview."`)
	return b.String()
}

const decisionInstruction = `Decide what the interviewer should do after the candidate's last answer.
Reply with JSON ONLY, one of:
{"action":"ask","text":"<one-sentence follow-up question>"}
{"action":"proceed"}
{"action":"end"}
Use "ask" only when the answer is vague or incomplete. Use "end" only when the interview should stop now.`

func decisionMessages(systemPrompt string, window []models.Message) []models.Message {
	msgs := make([]models.Message, 0, len(window)+2)
	msgs = append(msgs, models.Message{Role: models.RoleSystem, Content: systemPrompt})
	msgs = append(msgs, window...)
	return append(msgs, models.Message{Role: models.RoleUser, Content: decisionInstruction})
}

func clarificationMessages(systemPrompt, question, utterance string) []models.Message {
	msgs := []models.Message{{Role: models.RoleSystem, Content: systemPrompt}}
	if question != "" {
		msgs = append(msgs, models.Message{Role: models.RoleAssistant, Content: question})
	}
	return append(msgs, models.Message{
		Role: models.RoleUser,
		Content: "The candidate asked: \"" + utterance + "\"\n" +
			"Briefly (1-2 sentences) clarify or restate the last question. Do not move on to a new question.",
	})
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
