package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/studyvault/studyvault-backend/internal/platform/envutil"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
)

const defaultEmbeddingModel = "text-embedding-3-small"

// OpenAIProvider delegates to the OpenAI embeddings API. Callers get the
// same contract as the hash provider: deterministic per text, zero vector
// for empty text, L2-normalized output (the raw API output is normalized
// here so callers never depend on the provider's distribution).
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	model   string
	dim     int
	http    *http.Client
	log     *logger.Logger
}

func NewOpenAIProvider(log *logger.Logger, dim int) (*OpenAIProvider, error) {
	apiKey := envutil.Str("OPENAI_API_KEY", "")
	if apiKey == "" {
		return nil, fmt.Errorf("embedding: provider=openai but OPENAI_API_KEY is not set")
	}
	if dim <= 0 {
		dim = DefaultDim
	}
	return &OpenAIProvider{
		apiKey:  apiKey,
		baseURL: envutil.Str("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		model:   envutil.Str("OPENAI_EMBEDDING_MODEL", defaultEmbeddingModel),
		dim:     dim,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log.With("provider", "OpenAIEmbedding"),
	}, nil
}

func (p *OpenAIProvider) Name() string { return ProviderOpenAI }
func (p *OpenAIProvider) Dim() int     { return p.dim }

type embeddingsRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return make([]float32, p.dim), nil
	}

	body, err := json.Marshal(embeddingsRequest{Model: p.model, Input: []string{text}, Dimensions: p.dim})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding: openai request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var out embeddingsResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("embedding: decode openai response (%d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(raw)
		if out.Error != nil {
			msg = out.Error.Message
		}
		return nil, fmt.Errorf("embedding: openai status %d: %s", resp.StatusCode, msg)
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("embedding: openai returned no data")
	}

	vec := make([]float32, len(out.Data[0].Embedding))
	for i, f := range out.Data[0].Embedding {
		vec[i] = float32(f)
	}
	normalize(vec)
	return vec, nil
}
