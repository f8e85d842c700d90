package application

type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrInsufficientBalance  = Error("sender's balance not enough")
	ErrTransferNotPermitted = Error("transfer not permitted")
	ErrUnauthorized         = Error("caller is not the owner")
	ErrInvalidSignature     = Error("invalid signature")
	ErrInvalidAmount        = Error("invalid amount")
	ErrBalanceOverflow      = Error("balance overflow")
	ErrInvalidAddress       = Error("invalid address")
	ErrUnknownTxKind        = Error("unknown transaction kind")
	ErrGenesisMissing       = Error("token genesis not initialized")
	ErrGenesisMismatch      = Error("token genesis differs from stored state")
	ErrDatabaseNil          = Error("database is nil")
	ErrMissingParameters    = Error("missing parameters")
	ErrDatabaseNotAvailable = Error("database not available")
)
