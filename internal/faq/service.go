// Package faq answers chat requests from the question catalogue.
package faq

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"faqchat/internal/protocol"
	"faqchat/internal/store"
)

var ErrUnsupportedRequest = errors.New("unsupported request")

// Suggester proposes catalogue questions for input that fuzzy matching could
// not place. Implementations return at most limit questions, all taken from
// questions.
type Suggester interface {
	Suggest(ctx context.Context, input string, questions []string, limit int) ([]string, error)
}

type Option func(*Service)

func WithSuggester(s Suggester) Option { return func(svc *Service) { svc.suggester = s } }

func WithMatchesLimit(n int) Option {
	return func(svc *Service) {
		if n > 0 {
			svc.limit = n
		}
	}
}

func WithScoreCutoff(c float64) Option { return func(svc *Service) { svc.cutoff = c } }

// WithPicturesURL sets the prefix put in front of stored picture names.
func WithPicturesURL(prefix string) Option { return func(svc *Service) { svc.picturesURL = prefix } }

func WithLogger(l zerolog.Logger) Option {
	return func(svc *Service) { svc.logger = l.With().Str("component", "faq").Logger() }
}

type Service struct {
	catalog     store.Catalog
	suggester   Suggester
	limit       int
	cutoff      float64
	picturesURL string
	logger      zerolog.Logger
}

func NewService(catalog store.Catalog, opts ...Option) *Service {
	s := &Service{
		catalog:     catalog,
		limit:       DefaultMatchesLimit,
		cutoff:      DefaultScoreCutoff,
		picturesURL: "/images/db/",
		logger:      log.Logger.With().Str("component", "faq").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Respond builds the response variant paired with req.
func (s *Service) Respond(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	switch r := req.(type) {
	case protocol.InputRequest:
		return s.find(ctx, r.Input)
	case protocol.QuestionRequest:
		return s.answer(ctx, r.Question)
	default:
		return nil, errors.Wrapf(ErrUnsupportedRequest, "%T", req)
	}
}

func (s *Service) find(ctx context.Context, input string) (protocol.InputResponse, error) {
	questions, err := s.catalog.Questions(ctx)
	if err != nil {
		return protocol.InputResponse{}, errors.Wrap(err, "list questions")
	}

	found := []string{}
	for _, m := range Matches(input, questions, s.cutoff) {
		if len(found) == s.limit {
			break
		}
		found = append(found, m.Question)
	}
	if len(found) > 0 || s.suggester == nil || len(questions) == 0 {
		return protocol.InputResponse{Questions: found}, nil
	}

	suggested, err := s.suggester.Suggest(ctx, input, questions, s.limit)
	if err != nil {
		s.logger.Warn().Err(err).Msg("suggester failed")
		return protocol.InputResponse{Questions: found}, nil
	}
	s.logger.Debug().Int("count", len(suggested)).Msg("using suggestions")
	return protocol.InputResponse{Questions: append(found, suggested...)}, nil
}

func (s *Service) answer(ctx context.Context, question string) (protocol.QuestionResponse, error) {
	e, err := s.catalog.Answer(ctx, question)
	if err != nil {
		return protocol.QuestionResponse{}, err
	}
	pictures := make([]string, 0, len(e.Pictures))
	for _, p := range e.Pictures {
		pictures = append(pictures, s.picturesURL+p)
	}
	return protocol.QuestionResponse{
		Question: question,
		Answer:   Normalize(e.Answer),
		Pictures: pictures,
	}, nil
}
