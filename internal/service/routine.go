package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_clients.go -package=mocks routine-advisor/internal/service CompletionClient,WebSearcher
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_routine_service.go -package=mocks routine-advisor/internal/service RoutineService

import (
	"context"
	"fmt"

	"routine-advisor/internal/contextutil"
	"routine-advisor/internal/llm"
	"routine-advisor/internal/prompt"
	"routine-advisor/internal/search"
)

// Generation parameters are fixed server-side and never taken from the caller.
const (
	completionTemperature = 0.7
	completionMaxTokens   = 800
)

// CompletionClient is an interface for a chat completion API.
// This interface is defined from the service layer's perspective (consumer-first).
type CompletionClient interface {
	// ChatWithMessages sends an ordered message list and returns the generated text.
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// WebSearcher is an interface for a web search API.
type WebSearcher interface {
	// Search returns ranked results for query.
	Search(ctx context.Context, query string) ([]search.Result, error)
}

// Mode identifies which of the two request shapes a request used.
type Mode string

const (
	// ModeRoutine builds a routine from a product list.
	ModeRoutine Mode = "routine"
	// ModeChat answers a follow-up question.
	ModeChat Mode = "chat"
)

// ProductRef is a product selected by the user.
type ProductRef struct {
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// ChatTurn is one message of the caller's conversation transcript.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RoutineRequest is a routine or chat request in the domain layer.
// A nil slice means the field was absent; products take precedence over history.
type RoutineRequest struct {
	Products []ProductRef
	History  []ChatTurn
}

// RoutineResponse carries the generated text and the mode that produced it.
type RoutineResponse struct {
	Mode Mode
	Text string
}

// RoutineService turns product lists and conversations into generated advice.
type RoutineService interface {
	// Process validates req, assembles the prompt for its mode and calls the completion API once.
	Process(ctx context.Context, req RoutineRequest) (RoutineResponse, error)
}

// routineService implements RoutineService.
type routineService struct {
	completion CompletionClient
	searcher   WebSearcher
}

// NewRoutineService creates a new RoutineService.
// A nil completion client means the credential is missing and every request fails with ErrNotConfigured.
// A nil searcher disables search and chat requests replay the full transcript.
func NewRoutineService(completion CompletionClient, searcher WebSearcher) RoutineService {
	return &routineService{
		completion: completion,
		searcher:   searcher,
	}
}

// Process handles one request.
func (s *routineService) Process(ctx context.Context, req RoutineRequest) (RoutineResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if s.completion == nil {
		logger.ErrorContext(ctx, "completion credential not configured")
		return RoutineResponse{}, ErrNotConfigured
	}

	var (
		mode     Mode
		messages []llm.Message
	)
	switch {
	case req.Products != nil:
		mode = ModeRoutine
		messages = prompt.ForProducts(toPromptProducts(req.Products))
		logger.InfoContext(ctx, "building routine", "product_count", len(req.Products))
	case req.History != nil:
		if err := validateHistory(req.History); err != nil {
			logger.WarnContext(ctx, "invalid history", "error", err)
			return RoutineResponse{}, err
		}
		mode = ModeChat
		messages = s.chatMessages(ctx, req.History)
	default:
		logger.WarnContext(ctx, "request has neither products nor history")
		return RoutineResponse{}, ErrMissingMode
	}

	text, err := s.completion.ChatWithMessages(ctx, messages, llm.ChatParams{
		Temperature: completionTemperature,
		MaxTokens:   completionMaxTokens,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to get completion", "mode", mode, "error", err)
		return RoutineResponse{}, WrapError(ErrExternalService, err)
	}

	logger.InfoContext(ctx, "completion succeeded", "mode", mode, "message_count", len(messages), "reply_length", len(text))
	return RoutineResponse{Mode: mode, Text: text}, nil
}

// chatMessages replays the transcript, or grounds the last turn on search results when search is configured.
// Search problems never fail the request; they only drop the citations.
func (s *routineService) chatMessages(ctx context.Context, history []ChatTurn) []llm.Message {
	logger := contextutil.LoggerFromContext(ctx)

	if s.searcher == nil {
		logger.InfoContext(ctx, "replaying chat history", "turns", len(history))
		return prompt.ForHistory(toPromptTurns(history))
	}

	query := history[len(history)-1].Content
	results, err := s.searcher.Search(ctx, query)
	if err != nil {
		logger.WarnContext(ctx, "search failed, answering without citations", "error", err)
		return prompt.ForQuery(query)
	}
	if len(results) == 0 {
		logger.InfoContext(ctx, "search returned no results, answering without citations")
		return prompt.ForQuery(query)
	}
	if len(results) > search.MaxResults {
		results = results[:search.MaxResults]
	}

	logger.InfoContext(ctx, "answering with search citations", "results", len(results))
	return prompt.ForSearch(query, results)
}

func validateHistory(history []ChatTurn) error {
	if len(history) == 0 {
		return &ValidationError{Field: "history", Message: "must contain at least one turn"}
	}
	for i, turn := range history {
		switch turn.Role {
		case llm.RoleSystem, llm.RoleUser, llm.RoleAssistant:
		default:
			return &ValidationError{
				Field:   fmt.Sprintf("history[%d].role", i),
				Message: "must be one of system, user, assistant",
			}
		}
	}
	return nil
}

func toPromptProducts(products []ProductRef) []prompt.Product {
	out := make([]prompt.Product, 0, len(products))
	for _, p := range products {
		out = append(out, prompt.Product(p))
	}
	return out
}

func toPromptTurns(history []ChatTurn) []prompt.Turn {
	out := make([]prompt.Turn, 0, len(history))
	for _, t := range history {
		out = append(out, prompt.Turn{Role: t.Role, Content: t.Content})
	}
	return out
}
