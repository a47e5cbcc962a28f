package turn

import "github.com/yoockh/intervue/internal/models"

const DefaultWindowSize = 12

// Window returns a copy of the last n conversation entries, leaving out the
// leading system prompt.
func Window(context []models.Message, n int) []models.Message {
	if len(context) > 0 && context[0].Role == models.RoleSystem {
		context = context[1:]
	}
	if n >= 0 && len(context) > n {
		context = context[len(context)-n:]
	}
	out := make([]models.Message, len(context))
	copy(out, context)
	return out
}
