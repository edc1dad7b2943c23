package ollama

import (
	"context"
	"strings"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

const answerTemperature = 0.2

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

// GenerateAnswer asks the model for a Spanish answer grounded on sources. With
// no sources the prompt asks for a short referral instead.
func (g *Generator) GenerateAnswer(ctx context.Context, question string, sources []domain.Candidate) (string, error) {
	req := generateRequest{
		Model:   g.client.genModel,
		Prompt:  buildAnswerPrompt(question, sources),
		Options: generateOptions{Temperature: answerTemperature},
	}
	var resp generateResponse
	if err := g.client.call(ctx, "generate", generatePath, req, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Response), nil
}
