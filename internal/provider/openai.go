package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/blues/antugrow/internal/config"
	"github.com/blues/antugrow/internal/logger"
	"github.com/blues/antugrow/internal/metrics"
)

// ErrNoAPIKey 未配置大模型密钥
var ErrNoAPIKey = errors.New("openai api key not configured")

type inputContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type inputMessage struct {
	Role    string         `json:"role"`
	Content []inputContent `json:"content"`
}

type responsesRequest struct {
	Model           string         `json:"model"`
	Input           []inputMessage `json:"input"`
	Temperature     float64        `json:"temperature"`
	MaxOutputTokens int            `json:"max_output_tokens"`
	TopP            float64        `json:"top_p"`
	Store           bool           `json:"store"`
}

type responsesResponse struct {
	Output []struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// OpenAIClient 大模型 responses 接口客户端
type OpenAIClient struct {
	session
	apiKey          string
	model           string
	maxOutputTokens int
}

// NewOpenAIClient 创建大模型客户端
func NewOpenAIClient(cfg config.OpenAIConfig, m *metrics.Metrics) *OpenAIClient {
	c := &OpenAIClient{
		session:         newSession(cfg.BaseURL, cfg.Timeout, m),
		apiKey:          cfg.APIKey,
		model:           cfg.Model,
		maxOutputTokens: cfg.MaxOutputTokens,
	}
	if c.model == "" {
		c.model = "gpt-4o"
	}
	if c.maxOutputTokens <= 0 {
		c.maxOutputTokens = 1000
	}
	c.header.Set("Authorization", "Bearer "+cfg.APIKey)
	return c
}

// Complete 发送单条用户输入，返回第一段输出文本
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	body, err := json.Marshal(responsesRequest{
		Model: c.model,
		Input: []inputMessage{{
			Role:    "user",
			Content: []inputContent{{Type: "input_text", Text: prompt}},
		}},
		Temperature:     1,
		MaxOutputTokens: c.maxOutputTokens,
		TopP:            1,
		Store:           false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/responses", bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	var resp responsesResponse
	if err := c.doJSON(req, "openai-responses", &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("openai error: %s", resp.Error.Message)
	}
	if len(resp.Output) == 0 || len(resp.Output[0].Content) == 0 {
		return "", fmt.Errorf("openai returned no output")
	}

	text := strings.TrimSpace(resp.Output[0].Content[0].Text)
	logger.Debug("OpenAI response received, model=%s, length=%d", c.model, len(text))
	return text, nil
}
