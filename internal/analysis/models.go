package analysis

import (
	pkgerrors "github.com/vichar-ai/vichar-backend/pkg/errors"
)

// EngineModel describes one analysis model: its credit cost per request and
// whether it is reserved for premium accounts.
type EngineModel struct {
	ID          string `json:"id"`
	CostCredits int    `json:"cost_credits"`
	Vision      bool   `json:"vision"`
	PremiumOnly bool   `json:"premium_only"`
}

// Costs are fixed server-side; the client only names the model.
var engineModels = []EngineModel{
	{ID: "standard", CostCredits: 1},
	{ID: "vision", CostCredits: 2, Vision: true},
	{ID: "deep", CostCredits: 5, PremiumOnly: true},
	{ID: "deep-vision", CostCredits: 8, Vision: true, PremiumOnly: true},
}

// EngineModels lists the available analysis models.
func EngineModels() []EngineModel {
	out := make([]EngineModel, len(engineModels))
	copy(out, engineModels)
	return out
}

// LookupModel resolves a model identifier.
func LookupModel(id string) (*EngineModel, error) {
	for _, model := range engineModels {
		if model.ID == id {
			m := model
			return &m, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown analysis model").
		WithDetails(map[string]any{"model": id})
}
