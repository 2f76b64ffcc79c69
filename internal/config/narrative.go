package config

import "os"

// NarrativeConfig holds configuration for the external text-generation API
// that turns numeric results into prose.
type NarrativeConfig struct {
	APIKey    string `json:"-"` // Never serialize
	BaseURL   string `json:"baseUrl"`
	Model     string `json:"model"`
	TimeoutMS int    `json:"timeoutMs"`
}

// DefaultNarrativeConfig returns the narrative API configuration from the
// environment. With no API key set the service runs against a deterministic
// mock narrative instead of the live API.
func DefaultNarrativeConfig() *NarrativeConfig {
	return &NarrativeConfig{
		APIKey:    os.Getenv("NARRATIVE_API_KEY"),
		BaseURL:   getEnvOrDefault("NARRATIVE_BASE_URL", "https://api.openai.com/v1"),
		Model:     getEnvOrDefault("NARRATIVE_MODEL", "gpt-4o-mini"),
		TimeoutMS: 30000,
	}
}

// IsEnabled returns true if the narrative API is configured.
func (c *NarrativeConfig) IsEnabled() bool {
	return c.APIKey != ""
}

// ChatEndpoint returns the chat-completions endpoint.
func (c *NarrativeConfig) ChatEndpoint() string {
	return c.BaseURL + "/chat/completions"
}
