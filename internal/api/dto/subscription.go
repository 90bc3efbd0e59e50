package dto

import "github.com/hugh/go-folio/internal/plans"

type CreateOrderRequest struct {
	Amount int64 `json:"amount"`
}

func (r CreateOrderRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Amount <= 0 {
		errors["amount"] = "Amount must be a positive number of minor units"
	}
	return errors
}

type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

func (r VerifyPaymentRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.OrderID == "" {
		errors["razorpay_order_id"] = "razorpay_order_id is required"
	}
	if r.PaymentID == "" {
		errors["razorpay_payment_id"] = "razorpay_payment_id is required"
	}
	if r.Signature == "" {
		errors["razorpay_signature"] = "razorpay_signature is required"
	}
	return errors
}

type PlanResponse struct {
	Plan plans.Tier `json:"plan"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
