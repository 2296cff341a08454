// Package chat answers user messages. A message is first offered to the
// plugin registry; anything unclaimed goes through retrieval and the
// configured completer, with per-session history carried as retrieval
// context.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/askdocs/askdocs/internal/config"
	"github.com/askdocs/askdocs/internal/engine"
	"github.com/askdocs/askdocs/internal/logger"
	"github.com/askdocs/askdocs/internal/plugin"
	"github.com/askdocs/askdocs/internal/session"
	"github.com/askdocs/askdocs/pkg/types"
)

// ErrEmptyMessage is returned by Send for blank input.
var ErrEmptyMessage = errors.New("message must not be empty")

// Reply sources.
const (
	SourcePlugin    = "plugin"
	SourceRetrieval = "retrieval"
)

// contextHistoryTurns is how many prior user turns feed the retrieval
// context string.
const contextHistoryTurns = 3

// Response is the outcome of one chat turn.
type Response struct {
	SessionID string                  `json:"session_id"`
	Reply     string                  `json:"reply"`
	Source    string                  `json:"source"`
	Sources   []types.ScoredCandidate `json:"sources,omitempty"`
}

// Service orchestrates plugins, retrieval, and completion.
type Service struct {
	engine    *engine.Engine
	sessions  *session.Manager
	plugins   *plugin.Registry
	completer Completer
}

// NewService wires a chat service. plugins may be empty; completer must
// not be nil.
func NewService(eng *engine.Engine, sessions *session.Manager, plugins *plugin.Registry, completer Completer) *Service {
	return &Service{
		engine:    eng,
		sessions:  sessions,
		plugins:   plugins,
		completer: completer,
	}
}

// NewCompleterFromConfig picks the completer named by CHAT_PROVIDER.
// Unknown values fall back to the offline template completer.
func NewCompleterFromConfig(cfg *config.Config) Completer {
	switch cfg.ChatProvider {
	case "openai":
		return NewOpenAICompleter("", cfg.OpenAIAPIKey, cfg.ChatModel)
	case "ollama":
		return NewOllamaCompleter(cfg.OllamaURL, cfg.ChatModel)
	case "template", "":
		return NewTemplateCompleter()
	default:
		logger.Warn("unknown chat provider, using template completer",
			"provider", cfg.ChatProvider)
		return NewTemplateCompleter()
	}
}

// Plugins exposes the registry for the plugin listing endpoint.
func (s *Service) Plugins() *plugin.Registry {
	return s.plugins
}

// Send answers message within the session identified by sessionID. An
// empty or expired sessionID starts a new session; the response carries
// the id to continue with.
func (s *Service) Send(ctx context.Context, sessionID, message string) (*Response, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	sess := s.sessions.Get(sessionID)
	history := append([]session.Message(nil), sess.History...)

	reply, source, sources, err := s.answer(ctx, message, history)
	if err != nil {
		return nil, err
	}

	s.sessions.Append(sess.ID, session.RoleUser, message)
	s.sessions.Append(sess.ID, session.RoleAssistant, reply)

	return &Response{
		SessionID: sess.ID,
		Reply:     reply,
		Source:    source,
		Sources:   sources,
	}, nil
}

func (s *Service) answer(ctx context.Context, message string, history []session.Message) (string, string, []types.ScoredCandidate, error) {
	if s.plugins != nil {
		reply, err := s.plugins.Dispatch(ctx, message)
		switch {
		case err == nil:
			return reply, SourcePlugin, nil, nil
		case errors.Is(err, plugin.ErrNoMatch):
			// fall through to retrieval
		default:
			return "", "", nil, fmt.Errorf("plugin: %w", err)
		}
	}

	candidates, err := s.engine.Query(ctx, engine.QueryRequest{
		Query:   message,
		Context: retrievalContext(history),
	})
	if err != nil {
		return "", "", nil, err
	}

	reply, err := s.completer.Complete(ctx, message, candidates, history)
	if err != nil {
		return "", "", nil, fmt.Errorf("completer %s: %w", s.completer.Name(), err)
	}
	return reply, SourceRetrieval, candidates, nil
}

// retrievalContext joins the most recent user turns into the context
// string handed to the engine, so follow-up questions rank results near
// the conversation's topic.
func retrievalContext(history []session.Message) string {
	var turns []string
	for i := len(history) - 1; i >= 0 && len(turns) < contextHistoryTurns; i-- {
		if history[i].Role == session.RoleUser {
			turns = append(turns, history[i].Content)
		}
	}
	// restore chronological order
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return strings.Join(turns, " ")
}
