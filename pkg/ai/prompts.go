package ai

import (
	"fmt"
	"strings"

	"github.com/mklimuk/thoughtflow/pkg/thought"
)

// ClassifyPrompt returns a prompt that asks the model to sort a thought into
// exactly one of the known destinations.
func ClassifyPrompt(content string) string {
	labels := make([]string, 0, len(thought.Destinations()))
	for _, d := range thought.Destinations() {
		labels = append(labels, d.Display())
	}

	return fmt.Sprintf(`
You are a personal assistant sorting short notes into fixed categories.

Note: "%s"

Pick the single best category from this list:
%s

Reply with the category name only, exactly as written above. No explanation, no punctuation.
`, content, "- "+strings.Join(labels, "\n- "))
}
