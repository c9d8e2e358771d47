package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vichar-ai/vichar-backend/internal/credits"
	"github.com/vichar-ai/vichar-backend/internal/subscriptions"
	pkgerrors "github.com/vichar-ai/vichar-backend/pkg/errors"
	"github.com/vichar-ai/vichar-backend/pkg/logger"
)

// AnalyzeRequest carries one position (or board image) to evaluate.
type AnalyzeRequest struct {
	Model    string `json:"model" validate:"required"`
	Position string `json:"position,omitempty"`
	Image    string `json:"image,omitempty"`
	Question string `json:"question,omitempty" validate:"omitempty,max=500"`
}

// AnalyzeResponse bundles the engine answer with the ledger outcome.
type AnalyzeResponse struct {
	Model       string          `json:"model"`
	CostCredits int             `json:"cost_credits"`
	Balance     int             `json:"balance"`
	Result      *ProviderResult `json:"result"`
}

// Service gates engine analysis behind the credit ledger: the debit lands
// before the engine runs, and a rejected debit stops the request cold.
type Service interface {
	Analyze(ctx context.Context, userID uuid.UUID, req AnalyzeRequest) (*AnalyzeResponse, error)
	Models() []EngineModel
}

type service struct {
	provider      Provider
	credits       credits.Service
	subscriptions subscriptions.Service
	logger        *logger.Logger
}

// ServiceParams bundles the dependencies required to build an analysis service.
type ServiceParams struct {
	Provider      Provider
	Credits       credits.Service
	Subscriptions subscriptions.Service
	Logger        *logger.Logger
}

// NewService wires an analysis service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Provider == nil {
		return nil, fmt.Errorf("analysis provider is required")
	}
	if params.Credits == nil {
		return nil, fmt.Errorf("credit service is required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription service is required")
	}
	return &service{
		provider:      params.Provider,
		credits:       params.Credits,
		subscriptions: params.Subscriptions,
		logger:        params.Logger,
	}, nil
}

func (s *service) Models() []EngineModel {
	return EngineModels()
}

func (s *service) Analyze(ctx context.Context, userID uuid.UUID, req AnalyzeRequest) (*AnalyzeResponse, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	model, err := LookupModel(req.Model)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Position) == "" && strings.TrimSpace(req.Image) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "position or image is required")
	}
	if model.Vision && strings.TrimSpace(req.Image) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vision models require an image")
	}

	if model.PremiumOnly {
		premium, err := s.subscriptions.IsPremium(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !premium {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "model requires a premium subscription").
				WithDetails(map[string]any{"model": model.ID})
		}
	}

	balance, err := s.credits.Use(ctx, credits.UseCreditsInput{
		UserID:  userID,
		Amount:  model.CostCredits,
		Context: "analysis:" + model.ID,
	})
	if err != nil {
		return nil, err
	}

	result, err := s.provider.Analyze(ctx, ProviderRequest{
		Model:    model.ID,
		Position: req.Position,
		Image:    req.Image,
		Question: req.Question,
	})
	if err != nil {
		// the debit stands; failed runs are not refunded automatically
		if s.logger != nil {
			s.logger.Error(s.logger.WithUserID(ctx, userID.String()), "analysis provider failed", err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "analysis engine unavailable")
	}

	return &AnalyzeResponse{
		Model:       model.ID,
		CostCredits: model.CostCredits,
		Balance:     balance.Credits,
		Result:      result,
	}, nil
}
