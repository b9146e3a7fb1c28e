package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/UVARAJAND/Receipt-Analyzer/internal/llm"
)

// ExtractFields implements llm.FieldExtractor using chat/completions.
// With Structured enabled the model is constrained to a JSON object that we
// validate against the receipt schema; otherwise the delimited-tag template
// is used and the response is pattern-parsed, with missing tags defaulting
// to empty strings.
func (c *Client) ExtractFields(ctx context.Context, text string) (llm.ReceiptFields, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"structured", c.cfg.Structured,
		"text_len", len(text),
	)

	var messages []map[string]any
	if c.cfg.Structured {
		schema := llm.BuildReceiptJSONSchema()
		messages = []map[string]any{
			{"role": "system", "content": llm.BuildStructuredSystemPrompt()},
			{"role": "user", "content": llm.BuildStructuredUserPrompt(text)},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		}
	} else {
		messages = []map[string]any{
			{"role": "user", "content": llm.BuildTaggedPrompt(text)},
		}
	}

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages":    messages,
	}
	if c.cfg.Structured {
		body["response_format"] = map[string]any{"type": "json_object"}
	}

	content, err := c.generate(ctx, body)
	if err != nil {
		c.log.Error("llm.extract.failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ReceiptFields{}, err
	}

	var out llm.ReceiptFields
	if c.cfg.Structured {
		raw := []byte(content)
		if err := llm.ValidateJSONAgainstSchema(llm.BuildReceiptJSONSchema(), raw); err != nil {
			// Off-vocabulary categories fail the enum but the JSON itself is
			// still usable; keep whatever fields decode and reserve tag
			// parsing for content that is not JSON at all.
			c.log.Warn("llm.extract.schema_validation_failed",
				"req_id", rid, "error", err,
			)
			if uerr := json.Unmarshal(raw, &out); uerr != nil {
				out = llm.ParseTaggedResponse(content)
			}
		} else if err := json.Unmarshal(raw, &out); err != nil {
			return llm.ReceiptFields{}, fmt.Errorf("unmarshal fields: %w", err)
		}
	} else {
		out = llm.ParseTaggedResponse(content)
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"vendor", out.Vendor,
		"date", out.Date,
		"amount", out.Amount,
		"category", out.Category,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// generate performs one chat/completions call and returns the first choice's
// message content.
func (c *Client) generate(ctx context.Context, body map[string]any) (string, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		return "", err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode model response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in model response")
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.log.Warn("model response body close error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("model status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
