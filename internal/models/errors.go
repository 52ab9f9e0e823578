package models

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("idea not found")
	ErrAlreadyFunded    = errors.New("idea already funded")
	ErrNotFunded        = errors.New("idea not funded")
	ErrUnauthorized     = errors.New("requester is not the idea creator")
	ErrAlreadyWithdrawn = errors.New("funds already withdrawn")
	ErrPayoutNotFound   = errors.New("payout not found")
)
