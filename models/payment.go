package models

import "time"

// PaymentOrder is recorded only after verification succeeds.
type PaymentOrder struct {
	OrderID   string    `json:"order_id"`
	Amount    float64   `json:"amount"`
	Package   string    `json:"package"`
	Method    string    `json:"method"`
	Timestamp time.Time `json:"timestamp"`
}

// CreditPackage is one purchasable bundle of topic credits.
// Topics == UnlimitedCredits marks the unlimited tier.
type CreditPackage struct {
	Key    string  `json:"key"`
	Name   string  `json:"name"`
	Topics int     `json:"topics"`
	Price  float64 `json:"price"`
}

// CreditPackages is the fixed catalog shown on the payment screen.
var CreditPackages = []CreditPackage{
	{Key: "basic", Name: "基础套餐", Topics: 1, Price: 1.9},
	{Key: "value", Name: "实惠套餐", Topics: 3, Price: 2.9},
	{Key: "premium", Name: "超值套餐", Topics: 10, Price: 4.9},
	{Key: "unlimited", Name: "无限套餐", Topics: UnlimitedCredits, Price: 9.9},
}

// FindPackage looks a package up by key.
func FindPackage(key string) (CreditPackage, bool) {
	for _, p := range CreditPackages {
		if p.Key == key {
			return p, true
		}
	}
	return CreditPackage{}, false
}

// VerifyPaymentRequest is the payment verification input.
type VerifyPaymentRequest struct {
	OrderID string  `json:"order_id"`
	Amount  float64 `json:"amount"`
	Package string  `json:"package"`
	Method  string  `json:"method"`
}
