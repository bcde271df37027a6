package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

// Template is a prompt with {{name}} placeholders.
type Template struct {
	Text string
}

func NewTemplate(text string) Template {
	return Template{Text: text}
}

var placeholder = regexp.MustCompile(`{{\s*([A-Za-z_][A-Za-z0-9_]*)\s*}}`)

// Render substitutes vars. Unknown placeholders are kept verbatim.
func (t Template) Render(vars map[string]any) string {
	return placeholder.ReplaceAllStringFunc(t.Text, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if v, ok := vars[name]; ok {
			return fmt.Sprint(v)
		}
		return m
	})
}

// Placeholders lists the distinct placeholder names in order of appearance.
func (t Template) Placeholders() []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range placeholder.FindAllStringSubmatch(t.Text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Execute is Render that fails when a placeholder has no value.
func (t Template) Execute(vars map[string]any) (string, error) {
	var missing []string
	for _, name := range t.Placeholders() {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("prompt: missing values for %s", strings.Join(missing, ", "))
	}
	return t.Render(vars), nil
}

// Introduction is sent once when a conversation starts with an empty
// transcript. It takes the assistant's name and the reference year.
var Introduction = NewTemplate("Introduce yourself as a flights management assistant, {{name}}, " +
	"powered by Google Gemini and designed to search/book flights. You use emojis to be interactive. " +
	"For reference, the year for dates is {{year}}")
