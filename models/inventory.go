package models

import "gorm.io/gorm"

// Stock movement types
const (
	MovementPurchase   = "purchase"
	MovementSale       = "sale"
	MovementAdjustment = "adjustment"
)

// Supplier represents a jewelry/consumables vendor
type Supplier struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	Name        string `gorm:"not null" json:"name"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Website     string `json:"website"`
	Notes       string `gorm:"type:text" json:"notes"`

	// Relations
	Products []Product `gorm:"foreignKey:SupplierID" json:"products,omitempty"`
}

// Product represents a sellable inventory item (jewelry, aftercare products)
type Product struct {
	gorm.Model
	UserID     uint  `gorm:"not null;index" json:"user_id"`
	SupplierID *uint `gorm:"index" json:"supplier_id,omitempty"`

	Name     string `gorm:"not null" json:"name"`
	SKU      string `gorm:"index" json:"sku"`
	Category string `json:"category"` // jewelry, aftercare, consumable
	Material string `json:"material"` // titanium, steel, gold, ...

	Price float64 `gorm:"not null" json:"price"`
	Cost  float64 `json:"cost"`

	Quantity          int  `gorm:"default:0" json:"quantity"`
	LowStockThreshold int  `gorm:"default:5" json:"low_stock_threshold"`
	IsActive          bool `gorm:"default:true" json:"is_active"`

	// Relations
	Supplier  *Supplier       `json:"supplier,omitempty"`
	Movements []StockMovement `gorm:"foreignKey:ProductID" json:"movements,omitempty"`
}

// LowStock reports whether the product has fallen to or below its threshold.
func (p Product) LowStock() bool {
	return p.Quantity <= p.LowStockThreshold
}

// StockMovement is the audit trail of every quantity change
type StockMovement struct {
	gorm.Model
	UserID    uint  `gorm:"not null;index" json:"user_id"`
	ProductID uint  `gorm:"not null;index" json:"product_id"`
	SaleID    *uint `json:"sale_id,omitempty"`

	Type      string `gorm:"not null" json:"type"`     // purchase, sale, adjustment
	Quantity  int    `gorm:"not null" json:"quantity"` // signed: negative removes stock
	Reference string `json:"reference"`                // PO number, sale id, reason

	// Relations
	Product Product `json:"-"`
}
