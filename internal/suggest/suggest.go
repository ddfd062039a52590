// Package suggest asks a chat model which catalogue questions fit free text
// that fuzzy matching could not place.
package suggest

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"gopkg.in/yaml.v3"
)

// PromptSpec is the YAML prompt file.
type PromptSpec struct {
	System       string `yaml:"system"`
	Instructions string `yaml:"instructions"`
	Style        struct {
		Temperature float32 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
	} `yaml:"style"`
}

// ChatCompleter is the part of *openai.Client the suggester calls.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type reply struct {
	Questions []string `json:"questions"`
}

type Suggester struct {
	spec    PromptSpec
	client  ChatCompleter
	model   string
	timeout time.Duration
	logger  zerolog.Logger
}

func New(spec PromptSpec, client ChatCompleter, model string) *Suggester {
	return &Suggester{
		spec:    spec,
		client:  client,
		model:   model,
		timeout: 10 * time.Second,
		logger:  log.Logger.With().Str("component", "suggest").Logger(),
	}
}

// Load reads the prompt spec at path.
func Load(path string, client ChatCompleter, model string) (*Suggester, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read prompt spec")
	}
	var spec PromptSpec
	if err := yaml.Unmarshal(b, &spec); err != nil {
		return nil, errors.Wrapf(err, "parse prompt spec %s", path)
	}
	if strings.TrimSpace(spec.System) == "" {
		return nil, errors.Errorf("prompt spec %s: system prompt is empty", path)
	}
	return New(spec, client, model), nil
}

// Suggest returns up to limit questions, each copied verbatim from
// questions, in the order the model ranked them.
func (s *Suggester) Suggest(ctx context.Context, input string, questions []string, limit int) ([]string, error) {
	if len(questions) == 0 || limit <= 0 {
		return []string{}, nil
	}

	temperature := s.spec.Style.Temperature
	if temperature <= 0 {
		temperature = 0.1
	}
	maxTokens := s.spec.Style.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 300
	}

	var b strings.Builder
	b.WriteString(s.spec.System)
	b.WriteString("\n\nQuestions:\n")
	for i, q := range questions {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(q)
		b.WriteString("\n")
	}
	if s.spec.Instructions != "" {
		b.WriteString("\n")
		b.WriteString(strings.ReplaceAll(s.spec.Instructions, "{limit}", strconv.Itoa(limit)))
		b.WriteString("\n")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: b.String()},
			{Role: openai.ChatMessageRoleUser, Content: input},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "chat completion")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices")
	}

	out, err := parseReply(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	kept := filterKnown(out.Questions, questions, limit)
	s.logger.Debug().Int("proposed", len(out.Questions)).Int("kept", len(kept)).Msg("suggestions")
	return kept, nil
}

// parseReply decodes the model output, falling back to the outermost braces
// when the object is wrapped in prose or a code fence.
func parseReply(raw string) (reply, error) {
	var out reply
	err := json.Unmarshal([]byte(raw), &out)
	if err == nil {
		return out, nil
	}
	first := strings.IndexByte(raw, '{')
	last := strings.LastIndexByte(raw, '}')
	if first < 0 || last <= first {
		return reply{}, errors.Wrap(err, "decode suggestions")
	}
	out = reply{}
	if err2 := json.Unmarshal([]byte(raw[first:last+1]), &out); err2 != nil {
		return reply{}, errors.Wrap(err, "decode suggestions")
	}
	return out, nil
}

func filterKnown(proposed, questions []string, limit int) []string {
	known := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		known[q] = struct{}{}
	}
	out := []string{}
	seen := make(map[string]struct{})
	for _, p := range proposed {
		p = strings.TrimSpace(p)
		if _, ok := known[p]; !ok {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out
}
