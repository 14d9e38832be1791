package domain

import "fmt"

// ValidatePromise rejects malformed promise input before it reaches the
// comparison engine. The engine itself assumes validated numeric inputs.
func ValidatePromise(p PromiseRecord) error {
	if p.Price < 0 {
		return fmt.Errorf("promise price must be non-negative, got %v", p.Price)
	}
	if p.DeliveryCharges < 0 {
		return fmt.Errorf("promise delivery charges must be non-negative, got %v", p.DeliveryCharges)
	}
	if p.DeliveryTime == "" {
		return fmt.Errorf("promise delivery time is required")
	}
	if p.ReturnPolicy == "" {
		return fmt.Errorf("promise return policy is required")
	}
	if p.ProductDescription == "" {
		return fmt.Errorf("promise product description is required")
	}
	return nil
}

// ValidateInvoice rejects malformed invoice input at the boundary.
func ValidateInvoice(inv InvoiceRecord) error {
	if inv.Price < 0 {
		return fmt.Errorf("invoice price must be non-negative, got %v", inv.Price)
	}
	if inv.DeliveryCharges < 0 {
		return fmt.Errorf("invoice delivery charges must be non-negative, got %v", inv.DeliveryCharges)
	}
	if inv.DeliveryTime == "" {
		return fmt.Errorf("invoice delivery time is required")
	}
	if inv.ReturnPolicy == "" {
		return fmt.Errorf("invoice return policy is required")
	}
	if inv.ProductDescription == "" {
		return fmt.Errorf("invoice product description is required")
	}
	return nil
}
