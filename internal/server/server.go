package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"faqchat/internal/config"
	"faqchat/internal/db"
	"faqchat/internal/faq"
	"faqchat/internal/protocol"
	"faqchat/internal/store"
	"faqchat/internal/suggest"
)

// Responder turns a hydrated request into its response.
type Responder interface {
	Respond(ctx context.Context, req protocol.Request) (protocol.Response, error)
}

// Deps are the collaborators a Server is built from.
type Deps struct {
	Catalog   store.Catalog
	Responder Responder
	// Database is nil when the catalogue lives in memory.
	Database *db.DB
}

type Server struct {
	router   *chi.Mux
	cfg      config.Config
	catalog  store.Catalog
	faq      Responder
	database *db.DB
	requests *protocol.Registry[protocol.Request]
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type QuestionsResponse struct {
	Questions []string `json:"questions"`
}

// NewServer opens the catalogue described by cfg, wires the optional
// suggester and returns a ready server. Close releases the database.
func NewServer(ctx context.Context, cfg config.Config) (*Server, error) {
	catalog, database, err := OpenCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []faq.Option{
		faq.WithMatchesLimit(cfg.MatchesLimit),
		faq.WithScoreCutoff(cfg.ScoreCutoff),
		faq.WithPicturesURL(cfg.PicturesURL),
	}
	if cfg.SuggestionsEnabled() {
		sug, err := suggest.Load(cfg.SuggestPromptFile, openai.NewClient(cfg.OpenAIAPIKey), cfg.Model)
		if err != nil {
			if database != nil {
				database.Close()
			}
			return nil, errors.Wrap(err, "failed to load suggester")
		}
		opts = append(opts, faq.WithSuggester(sug))
		log.Info().Str("model", cfg.Model).Msg("suggestions enabled")
	} else {
		log.Info().Msg("OPENAI_API_KEY not set, suggestions disabled")
	}

	return New(cfg, Deps{
		Catalog:   catalog,
		Responder: faq.NewService(catalog, opts...),
		Database:  database,
	}), nil
}

func New(cfg config.Config, deps Deps) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.AllowedOrigin},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		MaxAge:         300,
	}))

	s := &Server{
		router:   r,
		cfg:      cfg,
		catalog:  deps.Catalog,
		faq:      deps.Responder,
		database: deps.Database,
		requests: protocol.NewRequestRegistry(),
		logger:   log.Logger.With().Str("component", "server").Logger(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/questions", s.handleQuestions)
	s.router.Get("/ws", s.handleWebsocket)
	if s.cfg.PicturesDir != "" && s.cfg.PicturesURL != "" {
		prefix := s.cfg.PicturesURL
		s.router.Handle(prefix+"*", http.StripPrefix(prefix, http.FileServer(http.Dir(s.cfg.PicturesDir))))
	}
}

func (s *Server) Router() http.Handler { return s.router }

// Close closes the database, if any.
func (s *Server) Close() error {
	if s.database == nil {
		return nil
	}
	return s.database.Close()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	code := http.StatusOK
	if s.database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.database.HealthCheck(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("database health check failed")
			status = map[string]string{"status": "degraded", "database": "unreachable"}
			code = http.StatusServiceUnavailable
		} else {
			status["database"] = "ok"
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := s.catalog.Questions(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list questions")
		s.writeError(w, http.StatusInternalServerError, "failed to list questions")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(QuestionsResponse{Questions: questions})
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if s.cfg.AllowedOrigin == "" || s.cfg.AllowedOrigin == "*" {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || strings.EqualFold(origin, s.cfg.AllowedOrigin)
}
