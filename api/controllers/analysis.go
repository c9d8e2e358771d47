package controllers

import (
	"net/http"

	"github.com/vichar-ai/vichar-backend/api/responses"
	"github.com/vichar-ai/vichar-backend/api/validators"
	"github.com/vichar-ai/vichar-backend/internal/analysis"
	pkgerrors "github.com/vichar-ai/vichar-backend/pkg/errors"
	"github.com/vichar-ai/vichar-backend/pkg/logger"
)

// Analyze runs an engine analysis, debiting the model's credit cost first.
func Analyze(svc analysis.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analysis service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body analysis.AnalyzeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Analyze(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AnalysisModels lists the available engine models and their credit costs.
func AnalysisModels(svc analysis.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Models())
	}
}
