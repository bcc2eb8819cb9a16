package domain

import "time"

// Address is a postal address embedded in a customer document.
type Address struct {
	ID        string `json:"_id"`
	Street    string `json:"street" validate:"nonblank"`
	City      string `json:"city" validate:"nonblank"`
	State     string `json:"state" validate:"nonblank"`
	ZipCode   string `json:"zipCode" validate:"nonblank"`
	Country   string `json:"country" validate:"nonblank"`
	IsPrimary bool   `json:"isPrimary"`
}

// AddressPatch carries the fields of a partial address update. Nil fields are left untouched.
type AddressPatch struct {
	Street    *string `json:"street,omitempty" validate:"omitnil,nonblank"`
	City      *string `json:"city,omitempty" validate:"omitnil,nonblank"`
	State     *string `json:"state,omitempty" validate:"omitnil,nonblank"`
	ZipCode   *string `json:"zipCode,omitempty" validate:"omitnil,nonblank"`
	Country   *string `json:"country,omitempty" validate:"omitnil,nonblank"`
	IsPrimary *bool   `json:"isPrimary,omitempty"`
}

// Apply merges the patch onto a copy of a and returns it.
func (p AddressPatch) Apply(a Address) Address {
	if p.Street != nil {
		a.Street = *p.Street
	}
	if p.City != nil {
		a.City = *p.City
	}
	if p.State != nil {
		a.State = *p.State
	}
	if p.ZipCode != nil {
		a.ZipCode = *p.ZipCode
	}
	if p.Country != nil {
		a.Country = *p.Country
	}
	if p.IsPrimary != nil {
		a.IsPrimary = *p.IsPrimary
	}
	return a
}

// Customer is the root document. Addresses keep insertion order.
type Customer struct {
	ID        string    `json:"_id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Addresses []Address `json:"addresses"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CustomerFields are the scalar fields replaced by a full customer update.
type CustomerFields struct {
	FirstName string `json:"firstName" validate:"nonblank,letters"`
	LastName  string `json:"lastName" validate:"nonblank,letters"`
	Email     string `json:"email" validate:"nonblank,email"`
	Phone     string `json:"phone" validate:"nonblank,phone10"`
}

// Address returns the embedded address with the given id.
func (c Customer) Address(id string) (Address, bool) {
	for _, a := range c.Addresses {
		if a.ID == id {
			return a, true
		}
	}
	return Address{}, false
}
