package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/unifound/lostfound/internal/application/port"
	"github.com/unifound/lostfound/internal/domain/entity"
)

// maxEvidenceChars caps how much extracted document text goes into one prompt
const maxEvidenceChars = 6000

const systemPrompt = "You review ownership claims filed at a lost-and-found office. " +
	"Compare the claimant's statements against the item report and any documents they attached, " +
	"and judge whether the claim is consistent with the item. " +
	"You advise human staff; you do not decide the claim. Always respond with valid JSON."

// Config holds connection settings for the screening backend. BaseURL and
// Timeout are optional; an empty Model falls back to gpt-4o-mini.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// Screener implements port.ClaimScreener using the OpenAI chat completion API
type Screener struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// NewScreener creates a new OpenAI claim screener
func NewScreener(cfg Config, logger *zap.Logger) *Screener {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &Screener{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

// screeningReply mirrors the JSON contract the model is asked to follow
type screeningReply struct {
	Verdict    string  `json:"verdict"`
	Confidence float64 `json:"confidence"`
	Summary    string  `json:"summary"`
}

// Screen sends one claim to the model and parses its verdict
func (s *Screener) Screen(ctx context.Context, in *entity.ScreeningInput) (*port.ScreeningResult, error) {
	s.logger.Debug("Screening claim",
		zap.String("request_id", in.RequestID),
		zap.Int("evidence_texts", len(in.EvidenceTexts)))

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: s.temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildScreeningPrompt(in),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		s.logger.Error("OpenAI API call failed", zap.Error(err))
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content

	var reply screeningReply
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		// Fallback: some models still wrap the object in markdown fences
		jsonStr := extractJSON(content)
		if jsonStr == "" || json.Unmarshal([]byte(jsonStr), &reply) != nil {
			s.logger.Error("Failed to parse screener response",
				zap.Error(err),
				zap.String("content", content))
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
	}

	verdict := strings.ToUpper(strings.TrimSpace(reply.Verdict))
	switch verdict {
	case entity.ScreeningVerdictConsistent, entity.ScreeningVerdictInconsistent, entity.ScreeningVerdictUncertain:
	default:
		s.logger.Warn("Screener returned unknown verdict, recording as uncertain",
			zap.String("verdict", reply.Verdict))
		verdict = entity.ScreeningVerdictUncertain
	}

	confidence := reply.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	model := resp.Model
	if model == "" {
		model = s.model
	}

	s.logger.Info("Claim screened",
		zap.String("request_id", in.RequestID),
		zap.String("verdict", verdict),
		zap.Float64("confidence", confidence))

	return &port.ScreeningResult{
		Verdict:    verdict,
		Confidence: confidence,
		Summary:    reply.Summary,
		Model:      model,
	}, nil
}

// buildScreeningPrompt lays out the claim, the item report, and document excerpts
func buildScreeningPrompt(in *entity.ScreeningInput) string {
	var b strings.Builder

	b.WriteString("Judge whether this ownership claim is consistent with the item report.\n\n")

	b.WriteString("**Item Report:**\n")
	fmt.Fprintf(&b, "- Title: %s\n", in.ItemTitle)
	if in.ItemDescription != "" {
		fmt.Fprintf(&b, "- Description: %s\n", in.ItemDescription)
	}
	if len(in.ItemTags) > 0 {
		fmt.Fprintf(&b, "- Tags: %s\n", strings.Join(in.ItemTags, ", "))
	}

	b.WriteString("\n**Claim:**\n")
	fmt.Fprintf(&b, "- Claimant statement: %s\n", in.ClaimDescription)
	if in.ProofDescription != "" {
		fmt.Fprintf(&b, "- Proof offered: %s\n", in.ProofDescription)
	}

	if len(in.EvidenceTexts) > 0 {
		b.WriteString("\n**Attached Document Text:**\n")
		remaining := maxEvidenceChars
		for i, text := range in.EvidenceTexts {
			if remaining <= 0 {
				break
			}
			if len(text) > remaining {
				text = text[:remaining]
			}
			remaining -= len(text)
			fmt.Fprintf(&b, "--- document %d ---\n%s\n", i+1, text)
		}
	}

	b.WriteString(`
Respond with ONLY a valid JSON object (no markdown, no explanation). The JSON must have this exact structure:
{
  "verdict": "CONSISTENT" or "INCONSISTENT" or "UNCERTAIN",
  "confidence": number between 0.0 and 1.0,
  "summary": string, one or two sentences explaining the judgment
}

Use CONSISTENT when the claim details match the item report, INCONSISTENT when they contradict it, and UNCERTAIN when there is too little information to tell.`)

	return b.String()
}

// extractJSON pulls the first balanced JSON object out of surrounding text
func extractJSON(content string) string {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}

var _ port.ClaimScreener = (*Screener)(nil)
