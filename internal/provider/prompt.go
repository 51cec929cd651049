package provider

import (
	"fmt"
	"os"
	"strings"
)

// DefaultInstructions is used when a provider has no prompt file configured.
const DefaultInstructions = "You are a document analyst. Summarize the content of the document " +
	"clearly and concisely, organize it chronologically, and identify the most important points. " +
	"Ignore watermarks, headers, and footers."

// LoadInstructions reads a provider's prompt file. It is read on every run so
// prompt edits take effect without a restart. An empty path yields the
// built-in default.
func LoadInstructions(path string) (string, error) {
	if path == "" {
		return DefaultInstructions, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("load prompt file %s: %w", path, err)
	}
	instructions := strings.TrimSpace(string(raw))
	if instructions == "" {
		return "", fmt.Errorf("prompt file %s is empty", path)
	}
	return instructions, nil
}
