package gemini

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/edgard/goodlifebot/internal/config"
)

type scriptedGenerator struct {
	calls     int
	errs      []error
	responses []*genai.GenerateContentResponse
	lastModel string
}

func (g *scriptedGenerator) GenerateContent(_ context.Context, model string, _ []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	i := g.calls
	g.calls++
	g.lastModel = model
	if i < len(g.errs) && g.errs[i] != nil {
		return nil, g.errs[i]
	}
	if i < len(g.responses) {
		return g.responses[i], nil
	}
	return textResponse("ok"), nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      genai.NewContentFromText(text, genai.RoleModel),
			FinishReason: genai.FinishReasonStop,
		}},
	}
}

func testClient(gen contentGenerator, retries int) *sdkClient {
	return newClient(gen, config.GeminiConfig{
		ModelName:  "gemini-test",
		MaxRetries: retries,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNudgeText(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{responses: []*genai.GenerateContentResponse{textResponse("  «Загляни вечером, вопросы ждут 🌙»  ")}}
	text, err := testClient(gen, 0).NudgeText(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Загляни вечером, вопросы ждут 🌙", text)
	assert.Equal(t, "gemini-test", gen.lastModel)
}

func TestNudgeTextRetries(t *testing.T) {
	t.Parallel()

	t.Run("retriable errors are retried", func(t *testing.T) {
		t.Parallel()
		gen := &scriptedGenerator{errs: []error{genai.APIError{Code: 503}, genai.APIError{Code: 429}}}
		_, err := testClient(gen, 2).NudgeText(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, gen.calls)
	})

	t.Run("retries are bounded", func(t *testing.T) {
		t.Parallel()
		gen := &scriptedGenerator{errs: []error{genai.APIError{Code: 500}, genai.APIError{Code: 500}, genai.APIError{Code: 500}}}
		_, err := testClient(gen, 1).NudgeText(context.Background())
		require.Error(t, err)
		assert.Equal(t, 2, gen.calls)
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		t.Parallel()
		gen := &scriptedGenerator{errs: []error{genai.APIError{Code: 400}}}
		_, err := testClient(gen, 3).NudgeText(context.Background())
		require.Error(t, err)
		assert.Equal(t, 1, gen.calls)
	})

	t.Run("transport errors are not retried", func(t *testing.T) {
		t.Parallel()
		gen := &scriptedGenerator{errs: []error{errors.New("connection reset")}}
		_, err := testClient(gen, 3).NudgeText(context.Background())
		require.Error(t, err)
		assert.Equal(t, 1, gen.calls)
	})
}

func TestNudgeTextEmptyResponses(t *testing.T) {
	t.Parallel()

	blocked := &genai.GenerateContentResponse{PromptFeedback: &genai.GenerateContentResponsePromptFeedback{
		BlockReason:        genai.BlockedReasonSafety,
		BlockReasonMessage: "safety",
	}}
	empty := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonMaxTokens}}}

	for name, resp := range map[string]*genai.GenerateContentResponse{"blocked": blocked, "empty": empty, "blank": textResponse("   ")} {
		t.Run(name, func(t *testing.T) {
			gen := &scriptedGenerator{responses: []*genai.GenerateContentResponse{resp}}
			_, err := testClient(gen, 0).NudgeText(context.Background())
			require.Error(t, err)
		})
	}
}

func TestCleanNudge(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "привет", cleanNudge(` "привет" `))
	long := cleanNudge(strings.Repeat("я", maxNudgeRunes+50))
	assert.Equal(t, maxNudgeRunes, len([]rune(long)))
	assert.True(t, strings.HasSuffix(long, "…"))
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewClient(context.Background(), config.GeminiConfig{}, nil)
	require.Error(t, err)
}
