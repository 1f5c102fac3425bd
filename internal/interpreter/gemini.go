package interpreter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-1.5-flash"
	defaultGeminiTimeout = 10 * time.Second
)

// geminiPrompt is the fixed instruction template submitted together with the
// user command. It enumerates the four permitted intents with examples and
// demands a bare JSON object in return.
const geminiPrompt = `You are an RBAC (Role-Based Access Control) assistant. Convert ANY natural language command related to permissions and roles into JSON.

ALWAYS return ONLY valid JSON with one of these actions:

1. For creating permissions:
{ "action": "create_permission", "name": "permission_name", "description": "description" }

2. For creating roles:
{ "action": "create_role", "name": "role_name", "description": "description" }

3. For giving a permission to a role:
{ "action": "assign_permission_to_role", "roleName": "role_name", "permissionName": "permission_name" }

4. For removing a permission from a role:
{ "action": "revoke_permission_from_role", "roleName": "role_name", "permissionName": "permission_name" }

Examples:
User: "Make a permission for publishing articles"
JSON: { "action": "create_permission", "name": "publish articles", "description": "Permission to publish articles" }

User: "I need a Manager role"
JSON: { "action": "create_role", "name": "Manager", "description": "Manager role" }

User: "Give Editor the ability to edit users"
JSON: { "action": "assign_permission_to_role", "roleName": "Editor", "permissionName": "edit users" }

Now convert this user command:
%q

Return ONLY the JSON object, no explanation.`

// Parser is the stage-1 generative interpretation capability. A failed parse
// is an expected, recoverable condition; the interpreter falls back to the
// deterministic rule table and never surfaces the error to the caller.
type Parser interface {
	ParseCommand(ctx context.Context, command string) (Intent, error)
}

// GeminiConfig holds the settings for the Gemini-backed parser.
type GeminiConfig struct {
	// APIKey authenticates against the Generative Language API.
	// An empty key disables stage-1 parsing entirely.
	APIKey string `toml:"apikey"`
	// Model selects the model, defaulting to gemini-1.5-flash.
	Model string `toml:"model"`
	// Timeout bounds a single generateContent call. A call that exceeds it
	// is treated like any other stage-1 failure.
	Timeout time.Duration `toml:"timeout"`
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string `toml:"baseurl"`
}

// GeminiParser implements Parser against the Generative Language REST API.
type GeminiParser struct {
	cfg    GeminiConfig
	client *http.Client
}

// NewGeminiParser creates a Gemini-backed parser. It fails with ErrNoAPIKey
// when no API key is configured, so the caller can decide to run without a
// stage-1 parser at all.
func NewGeminiParser(cfg GeminiConfig) (*GeminiParser, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultGeminiTimeout
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeminiBaseURL
	}

	return &GeminiParser{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// generateContent request/response wire shapes, reduced to the fields used.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// ParseCommand submits the command to the generative backend and decodes the
// returned JSON object into an Intent. The call is bounded by the configured
// timeout via the request context.
func (p *GeminiParser) ParseCommand(ctx context.Context, command string) (Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: fmt.Sprintf(geminiPrompt, command)}}},
		},
	})
	if err != nil {
		return Intent{}, fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		p.cfg.BaseURL, p.cfg.Model, p.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Intent{}, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Intent{}, fmt.Errorf("generative backend call failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512)) //nolint:errcheck // best effort
		return Intent{}, fmt.Errorf("generative backend returned status %d: %s", resp.StatusCode, body)
	}

	var decoded geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Intent{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return Intent{}, ErrEmptyResponse
	}

	return decodeIntentText(decoded.Candidates[0].Content.Parts[0].Text)
}

// decodeIntentText strips surrounding markdown code fences from the model
// output and unmarshals the remaining JSON object.
func decodeIntentText(text string) (Intent, error) {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	var intent Intent
	if err := json.Unmarshal([]byte(text), &intent); err != nil {
		return Intent{}, fmt.Errorf("response is not a JSON intent: %w", err)
	}

	return intent, nil
}
