// =============================
// File: internal/dex/market/errors.go
// =============================
package market

import (
	"errors"
	"fmt"
)

// Kind классифицирует ошибку планирования.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindInvalidInput
	KindPreconditionFailed
	KindCompositionFailed
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrCompositionFailed  = errors.New("composition failed")
)

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindInvalidInput:
		return ErrInvalidInput
	case KindPreconditionFailed:
		return ErrPreconditionFailed
	case KindCompositionFailed:
		return ErrCompositionFailed
	}
	return nil
}

func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error – ошибка операции с конкретной причиной.
// errors.Is(err, ErrPreconditionFailed) и аналоги работают по Kind.
type Error struct {
	Kind   Kind
	Op     string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func invalidInput(op, format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidInput, Op: op, Reason: fmt.Sprintf(format, args...)}
}

func invalidInputErr(op, reason string, err error) error {
	return &Error{Kind: KindInvalidInput, Op: op, Reason: reason, Err: err}
}

func precondition(op, format string, args ...interface{}) error {
	return &Error{Kind: KindPreconditionFailed, Op: op, Reason: fmt.Sprintf(format, args...)}
}

func notFound(op, what string, err error) error {
	return &Error{Kind: KindNotFound, Op: op, Reason: what, Err: err}
}

func compositionFailed(op, reason string, err error) error {
	return &Error{Kind: KindCompositionFailed, Op: op, Reason: reason, Err: err}
}

// Коды ошибок программы (Anchor, начиная с 6000)
const (
	ErrCodeMathOverflow = 6000 + iota
	ErrCodeSlippageExceeded
	ErrCodeCurveComplete
	ErrCodeCurveNotComplete
	ErrCodeAlreadyMigrated
	ErrCodeNotMigrated
	ErrCodeInsufficientTokens
	ErrCodeInsufficientSol
	ErrCodeAlreadyStarred
	ErrCodeCannotStarOwnToken
	ErrCodeBuybackCooldown
	ErrCodeBuybackPriceHealthy
	ErrCodeBuybackTooSmall
	ErrCodeSupplyFloorReached
	ErrCodeBaselineNotInitialized
	ErrCodeWalletNotLinked
	ErrCodeVaultAuthorityMismatch
	ErrCodeLtvExceeded
	ErrCodeNotLiquidatable
	ErrCodeMemoTooLong
)

// ProgramErrors – имена кодов ошибок для solbc.ErrorAnalyzer.
var ProgramErrors = map[int]string{
	ErrCodeMathOverflow:           "MathOverflow",
	ErrCodeSlippageExceeded:       "SlippageExceeded",
	ErrCodeCurveComplete:          "CurveComplete",
	ErrCodeCurveNotComplete:       "CurveNotComplete",
	ErrCodeAlreadyMigrated:        "AlreadyMigrated",
	ErrCodeNotMigrated:            "NotMigrated",
	ErrCodeInsufficientTokens:     "InsufficientTokens",
	ErrCodeInsufficientSol:        "InsufficientSol",
	ErrCodeAlreadyStarred:         "AlreadyStarred",
	ErrCodeCannotStarOwnToken:     "CannotStarOwnToken",
	ErrCodeBuybackCooldown:        "BuybackCooldown",
	ErrCodeBuybackPriceHealthy:    "BuybackPriceHealthy",
	ErrCodeBuybackTooSmall:        "BuybackTooSmall",
	ErrCodeSupplyFloorReached:     "SupplyFloorReached",
	ErrCodeBaselineNotInitialized: "BaselineNotInitialized",
	ErrCodeWalletNotLinked:        "WalletNotLinked",
	ErrCodeVaultAuthorityMismatch: "VaultAuthorityMismatch",
	ErrCodeLtvExceeded:            "LtvExceeded",
	ErrCodeNotLiquidatable:        "NotLiquidatable",
	ErrCodeMemoTooLong:            "MemoTooLong",
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
