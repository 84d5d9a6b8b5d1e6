package models

import "time"

const OrderStatusNew = "new"

type OrderItem struct {
	Name     string  `json:"name" bson:"name" validate:"required"`
	Price    float64 `json:"price" bson:"price" validate:"gte=0"`
	Quantity int     `json:"quantity" bson:"quantity" validate:"min=1"`
}

// OrderRequest is an order submission as received from the storefront.
// Field order matters: the first failing field is the one reported.
type OrderRequest struct {
	Items           []OrderItem `json:"items" validate:"required,min=1,dive"`
	CustomerName    string      `json:"customer_name" validate:"required"`
	CustomerPhone   string      `json:"customer_phone" validate:"required"`
	Total           float64     `json:"total" validate:"required"`
	CustomerEmail   string      `json:"customer_email,omitempty"`
	CustomerAddress string      `json:"customer_address,omitempty"`
	CustomerComment string      `json:"customer_comment,omitempty"`
}

// Order is a persisted order. Orders are never updated after creation.
type Order struct {
	ID              int64       `json:"id" bson:"id"`
	Items           []OrderItem `json:"items" bson:"items"`
	Total           float64     `json:"total" bson:"total"`
	CustomerName    string      `json:"customer_name" bson:"customer_name"`
	CustomerPhone   string      `json:"customer_phone" bson:"customer_phone"`
	CustomerEmail   string      `json:"customer_email,omitempty" bson:"customer_email,omitempty"`
	CustomerAddress string      `json:"customer_address,omitempty" bson:"customer_address,omitempty"`
	CustomerComment string      `json:"customer_comment,omitempty" bson:"customer_comment,omitempty"`
	Source          string      `json:"source" bson:"source"`
	Status          string      `json:"status" bson:"status"`
	CreatedAt       time.Time   `json:"created_at" bson:"created_at"`
}

// NewOrder copies the submission into an unsaved order.
func NewOrder(req OrderRequest, source string) Order {
	items := make([]OrderItem, len(req.Items))
	copy(items, req.Items)
	return Order{
		Items:           items,
		Total:           req.Total,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		CustomerAddress: req.CustomerAddress,
		CustomerComment: req.CustomerComment,
		Source:          source,
		Status:          OrderStatusNew,
	}
}
