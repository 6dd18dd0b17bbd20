package chat

import "strings"

// RenderSystemPrompt substitutes the {name} placeholder within the given
// prompt template with the configured assistant name.
func RenderSystemPrompt(template, name string) string {
	return strings.ReplaceAll(template, "{name}", name)
}
