package domain

import "errors"

var (
	ErrInvalidID      = errors.New("invalid id")
	ErrInvalidTitle   = errors.New("invalid title")
	ErrInvalidName    = errors.New("invalid name")
	ErrInvalidColumn  = errors.New("invalid column")
	ErrInvalidDueDate = errors.New("invalid due date")
	ErrInvalidText    = errors.New("invalid text")
	ErrCardNotFound   = errors.New("card not found")
)
