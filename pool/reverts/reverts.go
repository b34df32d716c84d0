// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts defines the ledger's failure taxonomy. Every revert aborts
// the whole operation with no partial state change; callers can branch on
// the code to decide whether to adjust the amount, wait, or escalate.
package reverts

import (
	"errors"
)

// Code identifies the kind of revert.
type Code uint8

const (
	InvalidAmount Code = iota + 1
	PoolDisabled
	NotAdmin
	NotBorrower
	InvalidFee
	ArithmeticError
	TransferFailed
	ExceedsAvailable
	InsufficientBalance
	ReentrantCall
	UnknownPool
	DuplicatePool
)

type ErrRevert struct {
	code    Code
	message string
}

func New(code Code, message string) *ErrRevert {
	return &ErrRevert{
		code:    code,
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Code() Code {
	return e.code
}

// IsRevertErr reports whether err is (or wraps) a revert.
func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// CodeOf extracts the revert code, or zero if err is not a revert.
func CodeOf(err error) Code {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.code
	}
	return 0
}

// Is reports whether err is a revert with the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
