package services

import "errors"

var (
	ErrInvalidMode     = errors.New("invalid mint mode")
	ErrInvalidToken    = errors.New("invalid token id")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrAlreadyMinted   = errors.New("token already minted")
	ErrInvalidAddress  = errors.New("invalid address")
)
