package memepump

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError reports user-submitted data rejected before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Reason: "required"}
	}
	return nil
}

// CreateCoinRequest is the body of POST /coins.
type CreateCoinRequest struct {
	Name             string  `json:"name"`
	Symbol           string  `json:"symbol"`
	Description      string  `json:"description"`
	Image            string  `json:"image"`
	Creator          string  `json:"creator"`
	Twitter          string  `json:"twitter,omitempty"`
	Telegram         string  `json:"telegram,omitempty"`
	Website          string  `json:"website,omitempty"`
	InitialBuyAmount float64 `json:"initialBuyAmount,omitempty"`
}

func (r CreateCoinRequest) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"name", r.Name},
		{"symbol", r.Symbol},
		{"description", r.Description},
		{"image", r.Image},
		{"creator", r.Creator},
	} {
		if err := required(f.name, f.value); err != nil {
			return err
		}
	}
	if r.InitialBuyAmount < 0 || math.IsNaN(r.InitialBuyAmount) {
		return &ValidationError{Field: "initialBuyAmount", Reason: "must not be negative"}
	}
	return nil
}

// TradeRequest is the body of POST /trades.
type TradeRequest struct {
	CoinID   string    `json:"coinId"`
	Type     TradeSide `json:"type"`
	Amount   float64   `json:"amount"`
	Wallet   string    `json:"wallet"`
	Username string    `json:"username,omitempty"`
}

func (r TradeRequest) Validate() error {
	if err := required("coinId", r.CoinID); err != nil {
		return err
	}
	if !r.Type.Valid() {
		return &ValidationError{Field: "type", Reason: "must be buy or sell"}
	}
	if !(r.Amount > 0) || math.IsInf(r.Amount, 0) {
		return &ValidationError{Field: "amount", Reason: "must be a positive number"}
	}
	return required("wallet", r.Wallet)
}

// CommentRequest is the body of POST /comments.
type CommentRequest struct {
	CoinID   string `json:"coinId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	Content  string `json:"content"`
}

func (r CommentRequest) Validate() error {
	if err := required("coinId", r.CoinID); err != nil {
		return err
	}
	if err := required("userId", r.UserID); err != nil {
		return err
	}
	if err := required("username", r.Username); err != nil {
		return err
	}
	return required("content", r.Content)
}

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	Bio      string `json:"bio,omitempty"`
	Pin      string `json:"pin"`
	Socials
}

func (r CreateUserRequest) Validate() error {
	if err := required("username", r.Username); err != nil {
		return err
	}
	return required("pin", r.Pin)
}

// LoginRequest is the body of POST /users/login.
type LoginRequest struct {
	Username string `json:"username"`
	Pin      string `json:"pin"`
}

func (r LoginRequest) Validate() error {
	if err := required("username", r.Username); err != nil {
		return err
	}
	return required("pin", r.Pin)
}

// UpdateUserRequest is the body of PUT /users/:id. The PIN authorises the change.
type UpdateUserRequest struct {
	Username string `json:"username,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Bio      string `json:"bio,omitempty"`
	Pin      string `json:"pin"`
	Socials
}

func (r UpdateUserRequest) Validate() error {
	return required("pin", r.Pin)
}
