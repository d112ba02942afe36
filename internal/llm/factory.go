// ABOUTME: Factory that maps model keys to configured generation providers
// ABOUTME: Unknown or unconfigured keys fall back to the default backend
package llm

import (
	"sort"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// DefaultModelKey selects the default generation backend
const DefaultModelKey = "openai"

type backend int

const (
	backendOpenAI backend = iota
	backendGroq
)

type modelSpec struct {
	model   string
	backend backend
}

// generatorSpecs maps user-facing model keys to concrete models. Several
// keys alias the same model so clients can ask for either the family or
// the exact model name.
var generatorSpecs = map[string]modelSpec{
	"openai":         {"gpt-4o-mini", backendOpenAI},
	"gpt-4o-mini":    {"gpt-4o-mini", backendOpenAI},
	"gpt-4o":         {"gpt-4o", backendOpenAI},
	"groq-llama-8b":  {"llama-3.1-8b-instant", backendGroq},
	"groq-llama-70b": {"llama-3.1-70b-versatile", backendGroq},
	"groq-mixtral":   {"mixtral-8x7b-32768", backendGroq},
}

// FactoryConfig holds the credentials and tuning shared by all providers
// the factory hands out.
type FactoryConfig struct {
	OpenAIKey    string
	GroqKey      string
	DefaultModel string // overrides the default key's model when set
	Timeout      time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
}

// Factory constructs generation providers by model key
type Factory struct {
	cfg    FactoryConfig
	logger *zap.Logger
}

// NewFactory creates a provider factory
func NewFactory(cfg FactoryConfig, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{cfg: cfg, logger: logger}
}

// Provider returns the provider for the given model key. An empty key
// selects the default backend. Unknown keys, and keys whose backend has
// no API key configured, fall back to the default with a warning.
func (f *Factory) Provider(modelKey string) (Provider, error) {
	if modelKey == "" {
		modelKey = DefaultModelKey
	}

	spec, ok := generatorSpecs[modelKey]
	if !ok {
		f.logger.Warn("unknown model key, falling back to default",
			zap.String("model_key", modelKey))
		spec = generatorSpecs[DefaultModelKey]
		modelKey = DefaultModelKey
	}

	if spec.backend == backendGroq && f.cfg.GroqKey == "" {
		f.logger.Warn("Groq API key not configured, falling back to default",
			zap.String("model_key", modelKey))
		spec = generatorSpecs[DefaultModelKey]
		modelKey = DefaultModelKey
	}

	clientCfg := &ClientConfig{
		ChatModel:  spec.model,
		Timeout:    f.cfg.Timeout,
		MaxRetries: f.cfg.MaxRetries,
		RetryDelay: f.cfg.RetryDelay,
	}

	switch spec.backend {
	case backendGroq:
		clientCfg.APIKey = f.cfg.GroqKey
		clientCfg.BaseURL = GroqBaseURL
	default:
		clientCfg.APIKey = f.cfg.OpenAIKey
		if modelKey == DefaultModelKey && f.cfg.DefaultModel != "" {
			clientCfg.ChatModel = f.cfg.DefaultModel
		}
	}

	return NewClient(clientCfg)
}

// Embedder returns the embedding client. Embeddings always go through
// the OpenAI backend regardless of the generation model in use.
func (f *Factory) Embedder(model string) (Embedder, error) {
	cfg := &ClientConfig{
		APIKey:     f.cfg.OpenAIKey,
		Timeout:    f.cfg.Timeout,
		MaxRetries: f.cfg.MaxRetries,
		RetryDelay: f.cfg.RetryDelay,
	}
	if model != "" {
		cfg.EmbeddingModel = openai.EmbeddingModel(model)
	}
	return NewClient(cfg)
}

// AvailableModels lists the model keys clients may request, sorted
func AvailableModels() []string {
	keys := make([]string, 0, len(generatorSpecs))
	for key := range generatorSpecs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
