package models

import "gorm.io/gorm"

// Payment methods accepted at the register
const (
	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
)

// Sale represents a point-of-sale ticket
type Sale struct {
	gorm.Model
	UserID   uint  `gorm:"not null;index" json:"user_id"`
	ClientID *uint `gorm:"index" json:"client_id,omitempty"` // anonymous walk-ins allowed
	StaffID  uint  `gorm:"not null;index" json:"staff_id"`   // who rang the sale

	Subtotal        float64 `gorm:"not null" json:"subtotal"`
	DiscountPercent float64 `gorm:"default:0" json:"discount_percent"`
	DiscountPlanID  *uint   `json:"discount_plan_id,omitempty"` // loyalty plan that granted the discount
	Total           float64 `gorm:"not null" json:"total"`

	PaymentMethod string `gorm:"default:'cash'" json:"payment_method"`
	Notes         string `json:"notes"`

	// Relations
	Items  []SaleItem `gorm:"foreignKey:SaleID" json:"items"`
	Client *Client    `json:"client,omitempty"`
}

// SaleItem is one line on a sale ticket. ProductID is nil for services
// (the piercing itself), set for inventory items.
type SaleItem struct {
	gorm.Model
	SaleID    uint  `gorm:"not null;index" json:"sale_id"`
	ProductID *uint `gorm:"index" json:"product_id,omitempty"`

	Description string  `gorm:"not null" json:"description"`
	Quantity    int     `gorm:"not null;default:1" json:"quantity"`
	UnitPrice   float64 `gorm:"not null" json:"unit_price"`
	LineTotal   float64 `gorm:"not null" json:"line_total"`

	// Relations
	Product *Product `json:"product,omitempty"`
}

// IsValidPaymentMethod reports whether method is a supported payment method.
func IsValidPaymentMethod(method string) bool {
	switch method {
	case PaymentCash, PaymentCard, PaymentTransfer:
		return true
	}
	return false
}
