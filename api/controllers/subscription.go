package controllers

import (
	"net/http"

	"github.com/vichar-ai/vichar-backend/api/responses"
	"github.com/vichar-ai/vichar-backend/api/validators"
	"github.com/vichar-ai/vichar-backend/internal/payments"
	"github.com/vichar-ai/vichar-backend/internal/subscriptions"
	pkgerrors "github.com/vichar-ai/vichar-backend/pkg/errors"
	"github.com/vichar-ai/vichar-backend/pkg/logger"
)

// SubscriptionStatus reports the caller's current plan. Lapsed premium rows
// flip to free inside the service before this responds.
func SubscriptionStatus(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := svc.Status(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, status)
	}
}

// SubscriptionPlans lists the purchasable premium terms.
func SubscriptionPlans() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, payments.PremiumPlans())
	}
}

// SubscriptionCreateOrder opens a gateway order for a premium term.
func SubscriptionCreateOrder(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body payments.CreateSubscriptionOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CreateSubscriptionOrder(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// SubscriptionVerifyPayment settles a checkout callback and activates premium.
func SubscriptionVerifyPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return verifyPayment(svc, logg)
}
