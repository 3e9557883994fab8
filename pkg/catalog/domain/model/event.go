package model

import "github.com/google/uuid"

type ProductCreated struct {
	MutationID uuid.UUID
	Product    Product
}

func (e ProductCreated) Type() string { return "ProductCreated" }

type ProductUpdated struct {
	MutationID uuid.UUID
	ProductID  int
	Patch      ProductPatch
}

func (e ProductUpdated) Type() string { return "ProductUpdated" }

type ProductDeleted struct {
	MutationID uuid.UUID
	ProductID  int
}

func (e ProductDeleted) Type() string { return "ProductDeleted" }

type MutationFailed struct {
	MutationID uuid.UUID
	Kind       MutationKind
	ProductID  int // zero for a failed create
	Err        error
}

func (e MutationFailed) Type() string { return "MutationFailed" }
