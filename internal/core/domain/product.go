package domain

import "time"

// Product is a catalog entry. ID is assigned by the store on insert and never
// changes.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Description string    `json:"description,omitempty"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProductPatch carries the fields submitted on update. Nil fields are left
// untouched in the store.
type ProductPatch struct {
	Name        *string
	Price       *float64
	Description *string
	Stock       *int
}

// Empty reports whether no field was submitted.
func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Price == nil && p.Description == nil && p.Stock == nil
}

// Apply merges the submitted fields into prod and stamps UpdatedAt.
func (p ProductPatch) Apply(prod *Product, at time.Time) {
	if p.Name != nil {
		prod.Name = *p.Name
	}
	if p.Price != nil {
		prod.Price = *p.Price
	}
	if p.Description != nil {
		prod.Description = *p.Description
	}
	if p.Stock != nil {
		prod.Stock = *p.Stock
	}
	prod.UpdatedAt = at
}

// Acknowledgement confirms an action without returning the affected entity.
type Acknowledgement struct {
	Message string `json:"message"`
}
