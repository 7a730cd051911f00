package errs

import (
	"errors"
	"fmt"
)

// Error kinds shared by the pricing engine and the orchestrator.
var (
	ErrInvalidAsset            = errors.New("invalid asset")
	ErrInvalidParameter        = errors.New("invalid parameter")
	ErrDivisionByZero          = errors.New("division by zero")
	ErrInsufficientFee         = errors.New("insufficient fee")
	ErrWalletNotConnected      = errors.New("wallet not connected")
	ErrCredentialInvalid       = errors.New("credential invalid")
	ErrTransferFailed          = errors.New("transfer failed")
	ErrPartialLiquidityDeposit = errors.New("partial liquidity deposit")
)

// PartialDepositError reports a symmetric deposit whose reserve leg was
// broadcast but whose asset leg failed. The pool position is left
// partially funded until the asset leg is resubmitted.
type PartialDepositError struct {
	ReserveTxID string
	Err         error
}

func (e *PartialDepositError) Error() string {
	return fmt.Sprintf("partial liquidity deposit: reserve transfer %s succeeded, asset transfer failed: %v", e.ReserveTxID, e.Err)
}

func (e *PartialDepositError) Is(target error) bool {
	return target == ErrPartialLiquidityDeposit
}

func (e *PartialDepositError) Unwrap() error {
	return e.Err
}
