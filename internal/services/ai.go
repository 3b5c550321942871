package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/tax-task-tracker/internal/constants"
	"github.com/yukikurage/tax-task-tracker/internal/obligations"
	"github.com/yukikurage/tax-task-tracker/internal/telemetry"
)

var ErrAIServiceNotConfigured = errors.New("AI service is not configured")

// ObligationExtractor reads obligations out of free text.
type ObligationExtractor interface {
	ExtractObligations(ctx context.Context, text string) ([]obligations.Entry, error)
}

type AIService struct {
	client *openai.Client
	model  string
	now    func() time.Time
}

// NewAIService returns nil when apiKey is empty.
func NewAIService(apiKey string) *AIService {
	if apiKey == "" {
		return nil
	}
	return NewAIServiceWithConfig(openai.DefaultConfig(apiKey))
}

// NewAIServiceWithConfig builds the service on an explicit client config.
// Outbound calls are traced.
func NewAIServiceWithConfig(cfg openai.ClientConfig) *AIService {
	cfg.HTTPClient = telemetry.InstrumentClient(&http.Client{Timeout: 60 * time.Second})
	return &AIService{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.GPT4o,
		now:    time.Now,
	}
}

type extractedObligation struct {
	Title        string   `json:"title"`
	DueDay       int      `json:"dueDay"`
	Notes        string   `json:"notes"`
	Category     string   `json:"category"`
	CompanyTypes []string `json:"companyTypes"`
	Months       []int    `json:"months"`
}

// ExtractObligations asks the model for the recurring obligations described
// in text. Entries that fail validation are dropped.
func (s *AIService) ExtractObligations(ctx context.Context, text string) ([]obligations.Entry, error) {
	if s == nil || s.client == nil {
		return nil, ErrAIServiceNotConfigured
	}

	prompt := fmt.Sprintf(`Você é um assistente de contabilidade. Extraia do texto abaixo as obrigações fiscais recorrentes.

Data atual: %s

Texto:
%s

Responda somente com um objeto JSON no formato:
{
  "obligations": [
    {
      "title": "nome curto da obrigação",
      "dueDay": 20,
      "notes": "detalhes relevantes",
      "category": "federal | estadual | municipal | trabalhista",
      "companyTypes": ["simples", "mei", "presumido", "real"],
      "months": [1, 4, 7, 10]
    }
  ]
}

Regras:
- dueDay é o dia do vencimento (1 a 31)
- months vazio significa todos os meses
- companyTypes vazio significa todos os regimes
- se não houver obrigações, responda {"obligations": []}`, s.now().Format(time.DateOnly), text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Temperature: 0.2,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content
	var payload struct {
		Obligations []extractedObligation `json:"obligations"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	entries := make([]obligations.Entry, 0, len(payload.Obligations))
	for _, o := range payload.Obligations {
		e := obligations.Entry{
			Title:        strings.TrimSpace(o.Title),
			DueDay:       o.DueDay,
			Notes:        strings.TrimSpace(o.Notes),
			Category:     strings.ToLower(strings.TrimSpace(o.Category)),
			CompanyTypes: o.CompanyTypes,
			Months:       o.Months,
			Source:       "ai",
		}
		if e.Validate() != nil {
			continue
		}
		entries = append(entries, e)
		if len(entries) == constants.MaxAIExtractedItems {
			break
		}
	}
	return entries, nil
}
