package turn

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/intervue/internal/llmjson"
	"github.com/yoockh/intervue/internal/logger"
	"github.com/yoockh/intervue/internal/models"
	"github.com/yoockh/intervue/internal/providers/llm"
)

// DefaultQuestions is used when question generation yields nothing.
var DefaultQuestions = []string{
	"Explain a commonly used data structure and where you would use it.",
	"Describe a time you debugged a hard problem. How did you approach it?",
}

var (
	codeBlockRe    = regexp.MustCompile("(?s)```.*?```")
	listItemRe     = regexp.MustCompile(`^(\d+[.)]|-|\*|•)\s+`)
	dashedNumberRe = regexp.MustCompile(`^\d+\s+-\s+`)
)

// ParseQuestions reads a numbered or bulleted list out of free text.
// Unmarked lines continue the current item.
func ParseQuestions(text string) []string {
	text = strings.TrimSpace(codeBlockRe.ReplaceAllString(text, ""))
	if text == "" {
		return nil
	}

	var (
		items   []string
		current string
	)
	flush := func() {
		if c := strings.TrimSpace(current); c != "" {
			items = append(items, c)
		}
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case listItemRe.MatchString(line):
			flush()
			current = listItemRe.ReplaceAllString(line, "")
		case dashedNumberRe.MatchString(line):
			flush()
			current = dashedNumberRe.ReplaceAllString(line, "")
		case current == "":
			current = line
		default:
			current += " " + line
		}
	}
	flush()
	return items
}

// QuestionGenerator asks the model for a tailored question set.
type QuestionGenerator struct {
	llm     llm.Completer
	timeout time.Duration
	log     *logrus.Logger
}

func NewQuestionGenerator(complete llm.Completer, timeout time.Duration, log *logrus.Logger) *QuestionGenerator {
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &QuestionGenerator{llm: complete, timeout: timeout, log: log}
}

// Generate never fails: JSON output is preferred, a plain list is accepted,
// and DefaultQuestions cover everything else. At most settings.NumQuestions
// are returned.
func (g *QuestionGenerator) Generate(ctx context.Context, systemPrompt string, meta models.RoleMeta, settings models.Settings) []string {
	var reply string
	if g.llm != nil {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		var err error
		reply, err = g.llm.Complete(callCtx, []models.Message{
			{Role: models.RoleSystem, Content: systemPrompt},
			{Role: models.RoleUser, Content: questionPrompt(meta, settings)},
		})
		if err != nil {
			g.log.WithError(err).Warn("question generation failed, using defaults")
			reply = ""
		}
	}

	questions, ok := llmjson.First(
		func() ([]string, bool) { return questionsFromJSON(reply) },
		func() ([]string, bool) {
			qs := ParseQuestions(reply)
			return qs, len(qs) > 0
		},
	)
	if !ok {
		questions = append([]string(nil), DefaultQuestions...)
	}
	if settings.NumQuestions > 0 && len(questions) > settings.NumQuestions {
		questions = questions[:settings.NumQuestions]
	}
	return questions
}

func questionsFromJSON(reply string) ([]string, bool) {
	obj, ok := llmjson.ExtractObject(reply)
	if !ok {
		return nil, false
	}
	list, ok := obj["questions"].([]any)
	if !ok {
		return nil, false
	}
	var out []string
	for _, q := range list {
		s := strings.TrimSpace(fmt.Sprint(q))
		if s != "" {
			out = append(out, s)
		}
	}
	return out, len(out) > 0
}

func questionPrompt(meta models.RoleMeta, settings models.Settings) string {
	n := settings.NumQuestions
	if n <= 0 {
		n = models.DefaultNumQuestions
	}
	difficulty := orDefault(settings.Difficulty, models.DefaultDifficulty)

	return fmt.Sprintf(`You are an expert interviewer generating interview questions for the role %s at %s.
Generate %d %s-difficulty technical interview questions tailored to this role and the job description below.

Return JSON ONLY in this exact format:
{ "questions": ["First question text", "Second question text", "..."] }

Do NOT include any explanations, numbering, commentary, or other fields.
Job description:
%s

Requirements:
%s

Candidate background:
%s
`, meta.Position, meta.Company, n, difficulty, meta.Description,
		orDefault(meta.Requirements, "None specified"),
		orDefault(meta.ResumeText, "No resume provided"))
}
