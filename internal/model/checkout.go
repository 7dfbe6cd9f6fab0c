package model

import "github.com/shopspring/decimal"

// CheckoutForm holds the values the shopper typed into the checkout form.
type CheckoutForm struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	City             string `json:"city"`
	PostalCode       string `json:"postal_code"`
	PaymentMethod    string `json:"payment_method"`
	PrescriptionFile string `json:"prescription_file,omitempty"` // upload reference, empty when nothing attached
	Notes            string `json:"notes,omitempty"`
}

// Values returns the form keyed by field name.
func (f CheckoutForm) Values() map[string]string {
	return map[string]string{
		"name":              f.Name,
		"email":             f.Email,
		"phone":             f.Phone,
		"address":           f.Address,
		"city":              f.City,
		"postal_code":       f.PostalCode,
		"payment_method":    f.PaymentMethod,
		"prescription_file": f.PrescriptionFile,
		"notes":             f.Notes,
	}
}

// Set assigns one field by name. Unknown fields are reported with false.
func (f *CheckoutForm) Set(field, value string) bool {
	switch field {
	case "name":
		f.Name = value
	case "email":
		f.Email = value
	case "phone":
		f.Phone = value
	case "address":
		f.Address = value
	case "city":
		f.City = value
	case "postal_code":
		f.PostalCode = value
	case "payment_method":
		f.PaymentMethod = value
	case "prescription_file":
		f.PrescriptionFile = value
	case "notes":
		f.Notes = value
	default:
		return false
	}
	return true
}

// ShippingDetails is the address block of an order.
type ShippingDetails struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

// OrderLine is one {productId, quantity} pair of an order.
type OrderLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// OrderRequest is the checkout payload sent to the order creation service.
type OrderRequest struct {
	Shipping            ShippingDetails `json:"shipping"`
	PaymentMethod       string          `json:"payment_method"`
	PrescriptionFileRef string          `json:"prescription_file,omitempty"`
	Items               []OrderLine     `json:"items"`
	CustomerNotes       string          `json:"customer_notes,omitempty"`
}

// OrderResult is the success result of the order creation service.
type OrderResult struct {
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}
