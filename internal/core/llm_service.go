package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

const (
	roleUser  = "user"
	roleModel = "model"
)

// ErrEmptyCompletion is returned when the model answered without any text.
var ErrEmptyCompletion = errors.New("model returned an empty completion")

// Turn is one prior message handed to the model.
type Turn struct {
	Role    string // "user" or "model"
	Content string
}

type CompletionRequest struct {
	Model             string
	SystemInstruction string
	History           []Turn
	Prompt            string
	Temperature       float32
	MaxOutputTokens   int32
}

// Completer is the single model operation the engine and translator need.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type LLMService struct {
	client       *genai.Client
	defaultModel string
}

func NewLLMService(ctx context.Context, apiKey, defaultModel string) (*LLMService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &LLMService{
		client:       client,
		defaultModel: defaultModel,
	}, nil
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing GenAI client")
		} else {
			log.Info().Msg("GenAI client closed.")
		}
	}
}

func (s *LLMService) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = s.defaultModel
	}
	model := s.client.GenerativeModel(modelName)

	if req.SystemInstruction != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.SystemInstruction)},
		}
	}
	model.SetTemperature(req.Temperature)
	if req.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(req.MaxOutputTokens)
	}

	history, prompt := normalizeTurns(req.History, req.Prompt)
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt is empty for chat completion")
	}

	chatSession := model.StartChat()
	chatSession.History = history

	resp, err := chatSession.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini chat SendMessage failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyCompletion
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			log.Debug().Str("part_type", fmt.Sprintf("%T", part)).Msg("Gemini response part was not text")
		}
	}

	if strings.TrimSpace(responseText.String()) == "" {
		return "", ErrEmptyCompletion
	}
	return responseText.String(), nil
}

// normalizeTurns converts history into Gemini contents. Gemini wants the
// history to start with a user turn and to alternate roles, so consecutive
// turns of the same role are merged, leading model turns are dropped and a
// trailing user turn is folded into the prompt.
func normalizeTurns(history []Turn, prompt string) ([]*genai.Content, string) {
	type merged struct {
		role string
		text []string
	}
	var turns []merged
	for _, t := range history {
		if strings.TrimSpace(t.Content) == "" {
			continue
		}
		role := roleUser
		if t.Role == roleModel {
			role = roleModel
		}
		if len(turns) == 0 && role == roleModel {
			continue
		}
		if n := len(turns); n > 0 && turns[n-1].role == role {
			turns[n-1].text = append(turns[n-1].text, t.Content)
			continue
		}
		turns = append(turns, merged{role: role, text: []string{t.Content}})
	}

	if n := len(turns); n > 0 && turns[n-1].role == roleUser {
		prompt = strings.Join(append(turns[n-1].text, prompt), "\n\n")
		turns = turns[:n-1]
	}

	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		contents = append(contents, &genai.Content{
			Role:  t.role,
			Parts: []genai.Part{genai.Text(strings.Join(t.text, "\n\n"))},
		})
	}
	return contents, prompt
}
