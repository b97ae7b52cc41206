package openai

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// PromptConfig holds the chat prompt and its model parameters
type PromptConfig struct {
	Chat struct {
		Temperature float32 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
		System      string  `yaml:"system"`
	} `yaml:"chat"`

	system *template.Template
}

// Facts are the dashboard figures the model may quote
type Facts struct {
	Anomalies  string
	GST        string
	Accuracy   string
	Comparison string
}

// LoadPrompts parses the embedded prompt file
func LoadPrompts() (*PromptConfig, error) {
	return ParsePrompts(defaultPrompts)
}

// ParsePrompts parses a prompt document and compiles its templates
func ParsePrompts(data []byte) (*PromptConfig, error) {
	var cfg PromptConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse prompts: %w", err)
	}
	if cfg.Chat.System == "" {
		return nil, fmt.Errorf("chat.system prompt is empty")
	}

	tmpl, err := template.New("system").Option("missingkey=error").Parse(cfg.Chat.System)
	if err != nil {
		return nil, fmt.Errorf("failed to compile system prompt: %w", err)
	}
	cfg.system = tmpl
	return &cfg, nil
}

// RenderSystem fills the system prompt with facts
func (p *PromptConfig) RenderSystem(facts Facts) (string, error) {
	var buf bytes.Buffer
	if err := p.system.Execute(&buf, facts); err != nil {
		return "", fmt.Errorf("failed to render system prompt: %w", err)
	}
	return buf.String(), nil
}
