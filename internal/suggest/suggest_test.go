package suggest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	content string
	err     error
	got     openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.got = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.content}}},
	}, nil
}

var catalogue = []string{
	"Когда начинается сессия?",
	"Где получить студенческий билет?",
	"Как перевестись на другой факультет?",
}

func loadTestSpec(t *testing.T, client ChatCompleter) *Suggester {
	t.Helper()
	s, err := Load(filepath.Join("..", "..", "prompts", "suggest.yaml"), client, "gpt-4o-mini")
	require.NoError(t, err)
	return s
}

func TestSuggestFiltersToKnownQuestions(t *testing.T) {
	fc := &fakeCompleter{content: `{"questions": ["Как перевестись на другой факультет?", "Придуманный вопрос", " Когда начинается сессия? ", "Как перевестись на другой факультет?"]}`}
	s := loadTestSpec(t, fc)

	got, err := s.Suggest(context.Background(), "хочу сменить направление", catalogue, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Как перевестись на другой факультет?", "Когда начинается сессия?"}, got)

	require.Len(t, fc.got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, fc.got.Messages[0].Role)
	assert.Contains(t, fc.got.Messages[0].Content, "2. Где получить студенческий билет?")
	assert.Contains(t, fc.got.Messages[0].Content, "Верни не больше 5 вопросов")
	assert.Equal(t, "хочу сменить направление", fc.got.Messages[1].Content)
	assert.Equal(t, "gpt-4o-mini", fc.got.Model)
	assert.Equal(t, 300, fc.got.MaxTokens)
}

func TestSuggestRespectsLimit(t *testing.T) {
	fc := &fakeCompleter{content: `{"questions": ["Когда начинается сессия?", "Где получить студенческий билет?"]}`}
	s := loadTestSpec(t, fc)

	got, err := s.Suggest(context.Background(), "учёба", catalogue, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Когда начинается сессия?"}, got)
}

func TestSuggestSalvagesWrappedJSON(t *testing.T) {
	fc := &fakeCompleter{content: "Вот подходящие вопросы:\n```json\n{\"questions\": [\"Где получить студенческий билет?\"]}\n```"}
	s := loadTestSpec(t, fc)

	got, err := s.Suggest(context.Background(), "пропуск", catalogue, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"Где получить студенческий билет?"}, got)
}

func TestSuggestErrors(t *testing.T) {
	fc := &fakeCompleter{content: "не знаю"}
	s := loadTestSpec(t, fc)
	_, err := s.Suggest(context.Background(), "x", catalogue, 3)
	assert.Error(t, err)

	fc.content = "{broken}"
	_, err = s.Suggest(context.Background(), "x", catalogue, 3)
	assert.Error(t, err)

	fc.err = errors.New("429")
	_, err = s.Suggest(context.Background(), "x", catalogue, 3)
	assert.ErrorContains(t, err, "429")

	got, err := s.Suggest(context.Background(), "x", nil, 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadRejectsBadSpecs(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.yaml"), &fakeCompleter{}, "m")
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("style:\n  temperature: 0.5\n"), 0o644))
	_, err = Load(empty, &fakeCompleter{}, "m")
	assert.Error(t, err)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("system: [unclosed"), 0o644))
	_, err = Load(broken, &fakeCompleter{}, "m")
	assert.Error(t, err)
}
