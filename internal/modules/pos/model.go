package pos

import (
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/shelfwise/internal/modules/inventory"
	"github.com/georgemunganga/shelfwise/internal/modules/order"
)

// PaymentMethod represents how a sale was paid at the counter.
type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "CASH"
	PaymentCard        PaymentMethod = "CARD"
	PaymentMobileMoney PaymentMethod = "MOBILE_MONEY"
)

// Tender describes how the customer paid. It is optional; without it a sale
// is recorded with no payment details. PaymentMethod is case-insensitive.
type Tender struct {
	PaymentMethod  string           `json:"paymentMethod"`
	AmountTendered *decimal.Decimal `json:"amountTendered"`
}

// CheckoutRequest is the payload for an immediate sale.
type CheckoutRequest struct {
	order.CreateOrderRequest
	Tender
}

// ResumeRequest completes a parked or held sale.
type ResumeRequest struct {
	Tender
}

// Sale is a confirmed order together with its payment details.
type Sale struct {
	Order          *order.Order     `json:"order"`
	PaymentMethod  PaymentMethod    `json:"paymentMethod,omitempty"`
	AmountTendered *decimal.Decimal `json:"amountTendered,omitempty"`
	Change         *decimal.Decimal `json:"change,omitempty"`
}

// ScanResult is what the register shows after a barcode scan.
type ScanResult struct {
	Product  *inventory.Product `json:"product"`
	InStock  bool               `json:"inStock"`
	LowStock bool               `json:"lowStock"`
}
