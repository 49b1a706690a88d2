package gen

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/ivlev/showrunner/internal/assets"
)

// ResolvedPrompt is a rendered prompt template, ready to hand to a provider
// and to record in provenance.
type ResolvedPrompt struct {
	TemplateName string
	Text         string
}

// PromptResolver renders prompt templates from show/prompts. Missing params
// fail the render: a silently empty prompt would poison the cache key.
type PromptResolver struct {
	dir string
}

func NewPromptResolver(dir string) (*PromptResolver, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("prompts directory not found: %s", dir)
	}
	return &PromptResolver{dir: dir}, nil
}

func (r *PromptResolver) Resolve(templateName string, params map[string]string) (ResolvedPrompt, error) {
	path := filepath.Join(r.dir, templateName)
	tpl, err := template.New(templateName).Option("missingkey=error").ParseFiles(path)
	if err != nil {
		return ResolvedPrompt{}, fmt.Errorf("prompt template %s: %w", templateName, err)
	}

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, templateName, params); err != nil {
		return ResolvedPrompt{}, fmt.Errorf("prompt template %s: %w", templateName, err)
	}

	return ResolvedPrompt{
		TemplateName: templateName,
		Text:         strings.TrimSpace(buf.String()) + "\n",
	}, nil
}

// LogResolvedPrompt keeps a copy of the exact prompt text under logs/prompts
// so a render can be reproduced later.
func LogResolvedPrompt(episodeDir, assetID string, prompt ResolvedPrompt) error {
	dir := filepath.Join(assets.LogsDir(episodeDir), "prompts")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, assetID+".txt"), []byte(prompt.Text), 0644)
}
