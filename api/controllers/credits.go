package controllers

import (
	"net/http"

	"github.com/vichar-ai/vichar-backend/api/responses"
	"github.com/vichar-ai/vichar-backend/api/validators"
	"github.com/vichar-ai/vichar-backend/internal/credits"
	"github.com/vichar-ai/vichar-backend/internal/payments"
	pkgerrors "github.com/vichar-ai/vichar-backend/pkg/errors"
	"github.com/vichar-ai/vichar-backend/pkg/logger"
)

const maxHistoryLimit = 200

// UseCreditsRequest debits the account for a named consumer.
type UseCreditsRequest struct {
	Amount  int    `json:"amount" validate:"required,gt=0"`
	Context string `json:"context" validate:"omitempty,max=100"`
}

// CreditBalance returns the caller's current balance.
func CreditBalance(svc credits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.Balance(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, balance)
	}
}

// CreditUse debits the caller's balance.
func CreditUse(svc credits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body UseCreditsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.Use(r.Context(), credits.UseCreditsInput{
			UserID:  userID,
			Amount:  body.Amount,
			Context: body.Context,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, balance)
	}
}

// CreditHistory lists recent ledger entries, newest first.
func CreditHistory(svc credits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, maxHistoryLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.History(r.Context(), userID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, entries)
	}
}

// CreditPackages lists the purchasable credit packages.
func CreditPackages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, payments.CreditPackages())
	}
}

// CreditCreateOrder opens a gateway order for a credit package.
func CreditCreateOrder(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body payments.CreateCreditOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CreateCreditOrder(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// CreditVerifyPayment settles a checkout callback and applies the credits.
func CreditVerifyPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return verifyPayment(svc, logg)
}

// CreditOrders lists the caller's payment orders.
func CreditOrders(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
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

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, maxHistoryLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, err := svc.ListOrders(r.Context(), userID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orders)
	}
}

// verifyPayment is shared between the credit and subscription verify routes;
// the order's recorded purpose decides what a settled payment unlocks.
func verifyPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body payments.VerifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.VerifyPayment(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
