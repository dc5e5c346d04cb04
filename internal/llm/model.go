// Package llm provides LLM and embedding services using langchaingo.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/cribconcierge/concierge-go/internal/config"
	"github.com/cribconcierge/concierge-go/internal/models"
)

// ErrGeneration marks a generation-collaborator failure or timeout.
// Callers recover it into a degraded textual answer; it is never
// surfaced raw to a question-asking client.
var ErrGeneration = errors.New("generation failed")

const systemPrompt = `You are a helpful real-estate assistant. Answer the user's question based ONLY on the provided listing context.
If the context doesn't contain enough information to answer the question, say so.
Be concise and mention specific listings from the context where relevant.`

// promptSuffix carries the presentation hints the chat frontend relies on.
const promptSuffix = ` (If showing properties, provide a brief summary and mention that detailed property cards will be displayed below. For VR tours, mention that 3D tour buttons are available.)`

// Model wraps a langchaingo LLM for text generation.
type Model struct {
	llm         llms.Model
	modelName   string
	temperature float64
	timeout     time.Duration
}

// NewModel creates an LLM model based on configuration.
func NewModel(ctx context.Context, cfg config.Config) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderGoogleAI:
		if cfg.GoogleAPIKey == "" {
			return nil, fmt.Errorf("Gemini API key required")
		}
		model, err = googleai.New(ctx,
			googleai.WithAPIKey(cfg.GoogleAPIKey),
			googleai.WithDefaultModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create googleai model: %w", err)
		}

	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderBedrock:
		awscfg, awsErr := awsconfig.LoadDefaultConfig(ctx)
		if awsErr != nil {
			return nil, fmt.Errorf("load aws config: %w", awsErr)
		}
		client := bedrockruntime.NewFromConfig(awscfg)
		model, err = bedrock.New(
			bedrock.WithModel(cfg.LLMModel),
			bedrock.WithClient(client),
		)
		if err != nil {
			return nil, fmt.Errorf("create bedrock model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Model{
		llm:         model,
		modelName:   cfg.LLMModel,
		temperature: cfg.Temperature,
		timeout:     cfg.GenerateTimeout,
	}, nil
}

// Model returns the LLM model name.
func (m *Model) Model() string {
	return m.modelName
}

// Answer synthesizes an answer to the question from retrieved listing
// context and conversation history. The call is bounded by the
// configured timeout; a timeout or provider failure is returned as
// ErrGeneration.
func (m *Model) Answer(ctx context.Context, question, searchContext string, history []models.Turn) (string, error) {
	prompt := systemPrompt
	if searchContext != "" {
		prompt += "\n\nContext:\n" + searchContext
	} else {
		prompt += "\n\nNo relevant listings were found for this query. Let the user know."
	}

	messages := make([]llms.MessageContent, 0, 2*len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, prompt))
	for _, turn := range history {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, turn.Question))
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeAI, turn.Answer))
	}
	messages = append(messages,
		llms.TextParts(llms.ChatMessageTypeHuman, "Answer in English: "+question+promptSuffix))

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	start := time.Now()
	response, err := m.llm.GenerateContent(ctx, messages, llms.WithTemperature(m.temperature))
	duration := time.Since(start)

	if err != nil {
		slog.Warn("generation failed", "model", m.modelName, "duration_ms", duration.Milliseconds(), "error", err)
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("%w: no response choices", ErrGeneration)
	}

	slog.Debug("generation complete", "model", m.modelName, "duration_ms", duration.Milliseconds())
	return response.Choices[0].Content, nil
}

// Generate generates text from a single prompt. Used by callers that
// need raw completion without retrieval context.
func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	response, err := llms.GenerateFromSinglePrompt(ctx, m.llm, prompt, llms.WithTemperature(m.temperature))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return response, nil
}
