package analysis

import (
	"context"
	"fmt"
	"strings"
)

// ProviderRequest is what the engine backend receives after gating.
type ProviderRequest struct {
	Model    string
	Position string
	Image    string
	Question string
}

// ProviderResult is the engine's answer.
type ProviderResult struct {
	Evaluation string `json:"evaluation"`
	BestMove   string `json:"best_move,omitempty"`
	Commentary string `json:"commentary,omitempty"`
}

// Provider is the engine backend behind the analysis service.
type Provider interface {
	Analyze(ctx context.Context, req ProviderRequest) (*ProviderResult, error)
}

// EchoProvider is a deterministic local backend used in development and
// tests; it never leaves the process.
type EchoProvider struct{}

func (EchoProvider) Analyze(ctx context.Context, req ProviderRequest) (*ProviderResult, error) {
	position := strings.TrimSpace(req.Position)
	if position == "" {
		position = "starting position"
	}
	return &ProviderResult{
		Evaluation: fmt.Sprintf("model %s evaluated %s", req.Model, position),
		Commentary: "development stub",
	}, nil
}
