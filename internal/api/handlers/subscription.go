package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hugh/go-folio/internal/api/dto"
	"github.com/hugh/go-folio/internal/api/middleware"
	"github.com/hugh/go-folio/internal/payments"
)

const (
	maxWebhookBody  = 1 << 20
	signatureHeader = "X-Razorpay-Signature"
)

type SubscriptionHandler struct {
	payments *payments.Service
	webhooks *payments.WebhookProcessor
	logger   *slog.Logger
}

func NewSubscriptionHandler(service *payments.Service, webhooks *payments.WebhookProcessor, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		payments: service,
		webhooks: webhooks,
		logger:   logger,
	}
}

func (h *SubscriptionHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateOrderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	user := middleware.GetUser(r.Context())
	order, err := h.payments.CreateOrder(r.Context(), user, req.Amount)
	if err != nil {
		h.logger.Error("order creation failed", "user_id", user.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Order creation failed"})
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func (h *SubscriptionHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyPaymentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	user := middleware.GetUser(r.Context())
	err := h.payments.VerifyPayment(r.Context(), user, payments.VerifyInput{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrInvalidSignature), errors.Is(err, payments.ErrOrderMismatch):
			h.logger.Warn("payment verification rejected", "user_id", user.ID, "order_id", req.OrderID, "error", err)
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Payment verification failed"})
		default:
			h.logger.Error("payment verification failed", "user_id", user.ID, "order_id", req.OrderID, "error", err)
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Payment verification failed"})
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Payment verified, subscription upgraded to Pro"})
}

func (h *SubscriptionHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.PlanResponse{Plan: middleware.GetUser(r.Context()).Plan})
}

// Webhook receives gateway notifications. The signature covers the exact
// received bytes, so the body is read raw and never re-encoded.
func (h *SubscriptionHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.webhooks == nil {
		writeJSON(w, http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Webhook not configured"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid webhook"})
		return
	}

	outcome, err := h.webhooks.Process(r.Context(), body, r.Header.Get(signatureHeader))
	if err != nil {
		var werr *payments.WebhookError
		if errors.As(err, &werr) {
			h.logger.Warn("webhook rejected", "kind", werr.Kind.String(), "error", werr.Err)
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid webhook"})
			return
		}
		h.logger.Error("webhook processing failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
		return
	}

	h.logger.Debug("webhook acknowledged", "outcome", string(outcome))
	writeJSON(w, http.StatusOK, dto.StatusResponse{Status: "ok"})
}
