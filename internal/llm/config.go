package llm

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ModelConfig holds the connection settings for one model endpoint.
type ModelConfig struct {
	ModelName string `json:"model_name"`
	Token     string `json:"token"`
	BaseURL   string `json:"base_url"`
}

// ConfigFile is the llm_config.json layout. Any OpenAI-compatible endpoint
// works; the default profile is used when no model name is requested.
type ConfigFile struct {
	Default ModelConfig            `json:"default"`
	Models  map[string]ModelConfig `json:"models"`
}

// LoadConfig reads llm_config.json, searching upward from the working
// directory.
func LoadConfig() (*ConfigFile, error) {
	paths := []string{
		"llm_config.json",
		"../llm_config.json",
		"../../llm_config.json",
	}

	var lastErr error
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			lastErr = err
			continue
		}

		var cfg ConfigFile
		if err := json.Unmarshal(data, &cfg); err != nil {
			lastErr = err
			continue
		}
		return &cfg, nil
	}

	return nil, fmt.Errorf("llm_config.json not found: %w", lastErr)
}

// Model selects a named model config, falling back to the default profile.
func (c *ConfigFile) Model(name string) (ModelConfig, error) {
	if name == "" || name == "default" {
		if c.Default.ModelName == "" {
			return ModelConfig{}, fmt.Errorf("no default model configured")
		}
		return c.Default, nil
	}
	mc, ok := c.Models[name]
	if !ok {
		return ModelConfig{}, fmt.Errorf("unknown model %q", name)
	}
	return mc, nil
}

// CreateLLM creates an LLM client for the model config.
func CreateLLM(config ModelConfig) (llms.Model, error) {
	return openai.New(
		openai.WithModel(config.ModelName),
		openai.WithToken(config.Token),
		openai.WithBaseURL(config.BaseURL),
	)
}
