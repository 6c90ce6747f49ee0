package service

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrEmptySelection  = errors.New("selection has no items")
	ErrInvalidQuantity = errors.New("quantity must be a finite, non-negative number")
)
