package hfinference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"migration-portal-service/internal/config"
	"migration-portal-service/internal/core/domain"
	"migration-portal-service/internal/core/ports/output"
)

// Each prompt section is capped so oversized uploads cannot blow the model's
// context window.
const maxPromptSection = 4000

const (
	maxNewTokens = 800
	temperature  = 0.3
)

const promptTemplate = `You are a senior ETL migration validator specializing in Informatica-to-Databricks conversions.
Validate whether the PySpark code below fully replicates the logic in the Informatica XML.

Compare:
- Source & Target mapping alignment
- Transformations (lookup, expression, router, filters, joins)
- Load strategy (insert/update/merge)
- Parameter & variable usage

Identify any missing or mismatched logic and summarize in markdown.

--- Informatica XML (truncated) ---
%s

--- PySpark Code (truncated) ---
%s

Return sections:
1. ETL Summary
2. Key Matching Transformations
3. Missing / Deviated Logic
4. Final Verdict (Pass/Fail)
`

// Client reviews generated code through the Hugging Face Inference API
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewClient(cfg *config.ValidatorConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Validate sends the validation prompt to the model and parses its verdict
func (c *Client) Validate(ctx context.Context, sourceXML, code string) (*domain.ValidationVerdict, error) {
	reqBody := generationRequest{
		Inputs: buildPrompt(sourceXML, code),
		Parameters: generationParameters{
			MaxNewTokens:   maxNewTokens,
			Temperature:    temperature,
			ReturnFullText: false,
		},
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidationTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrValidationUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrValidationUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed generationResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmptyVerdict, err)
	}
	if len(parsed) == 0 || strings.TrimSpace(parsed[0].GeneratedText) == "" {
		return nil, domain.ErrEmptyVerdict
	}

	assessment := strings.TrimSpace(parsed[0].GeneratedText)
	return &domain.ValidationVerdict{
		Assessment:  assessment,
		Passed:      parseVerdict(assessment),
		Model:       c.model,
		CompletedAt: time.Now(),
	}, nil
}

func buildPrompt(xmlText, code string) string {
	return fmt.Sprintf(promptTemplate, truncate(xmlText, maxPromptSection), truncate(code, maxPromptSection))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// parseVerdict derives the tri-state pass flag from the assessment's final
// verdict section. Ambiguous assessments stay undetermined.
func parseVerdict(assessment string) *bool {
	lower := strings.ToLower(assessment)
	idx := strings.LastIndex(lower, "final verdict")
	if idx == -1 {
		return nil
	}
	window := lower[idx:]
	if len(window) > 200 {
		window = window[:200]
	}
	// drop the "(pass/fail)" header echo before looking for the answer
	window = strings.ReplaceAll(window, "pass/fail", "")

	hasPass := strings.Contains(window, "pass")
	hasFail := strings.Contains(window, "fail")
	switch {
	case hasPass && !hasFail:
		v := true
		return &v
	case hasFail && !hasPass:
		v := false
		return &v
	default:
		return nil
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var uerr *url.Error
	return errors.As(err, &uerr) && uerr.Timeout()
}

// Hugging Face text-generation API types
type generationRequest struct {
	Inputs     string               `json:"inputs"`
	Parameters generationParameters `json:"parameters"`
}

type generationParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type generationResponse []struct {
	GeneratedText string `json:"generated_text"`
}

// Ensure Client implements Validator
var _ ports.Validator = (*Client)(nil)
