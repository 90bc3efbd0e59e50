package models

import "time"

type OrderStatus string

const (
	OrderStatusCreated OrderStatus = "created"
	OrderStatusPaid    OrderStatus = "paid"
)

// PaymentOrder is the local audit record of a gateway order created here.
// Plan upgrades never trust it for identity; the gateway's order notes do.
type PaymentOrder struct {
	OrderID   string      `gorm:"primaryKey;size:64" json:"order_id" bson:"order_id"`
	UserID    string      `gorm:"index;not null;size:32" json:"user_id" bson:"user_id"`
	Amount    int64       `gorm:"not null" json:"amount" bson:"amount"`
	Currency  string      `gorm:"size:8;not null" json:"currency" bson:"currency"`
	Status    OrderStatus `gorm:"size:16;not null;default:'created'" json:"status" bson:"status"`
	PaymentID *string     `json:"payment_id,omitempty" bson:"payment_id,omitempty"`
	CreatedAt time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" bson:"updated_at"`
}

func (PaymentOrder) TableName() string {
	return "payment_orders"
}
