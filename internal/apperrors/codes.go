// Package apperrors provides structured error kinds for the parcel tracker core.
package apperrors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Registration and input errors
	CodeInvalidUsername            Code = "INVALID_USERNAME"
	CodeInvalidPassword            Code = "INVALID_PASSWORD"
	CodeAdminRegistrationForbidden Code = "ADMIN_REGISTRATION_FORBIDDEN"
	CodeUnknownFilterType          Code = "UNKNOWN_FILTER_TYPE"
	CodeInvalidDate                Code = "INVALID_DATE"
	CodeInvalidDays                Code = "INVALID_DAYS"

	// Authentication and authorization errors
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeInvalidCapability  Code = "INVALID_CAPABILITY"
	CodePermissionDenied   Code = "PERMISSION_DENIED"
	CodeNotRecipient       Code = "NOT_RECIPIENT"

	// Ledger errors
	CodeDeltaOutOfRange   Code = "DELTA_OUT_OF_RANGE"
	CodeBalanceOutOfRange Code = "BALANCE_OUT_OF_RANGE"

	// Lookup errors
	CodeUnknownAccount Code = "UNKNOWN_ACCOUNT"
	CodeParcelNotFound Code = "PARCEL_NOT_FOUND"

	// State errors
	CodeUsernameTaken    Code = "USERNAME_TAKEN"
	CodeParcelNotPending Code = "PARCEL_NOT_PENDING"

	// Storage errors
	CodeStorage Code = "STORAGE"
)

// Kind groups codes into the taxonomy the shell renders.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindRange
	KindNotFound
	KindConflict
)

// String returns the kind name used in rendered messages.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindAuth:
		return "AuthError"
	case KindRange:
		return "RangeError"
	case KindNotFound:
		return "NotFoundError"
	case KindConflict:
		return "ConflictError"
	default:
		return "InternalError"
	}
}

// Kind maps a code to its taxonomy group.
func (c Code) Kind() Kind {
	switch c {
	case CodeInvalidUsername,
		CodeInvalidPassword,
		CodeAdminRegistrationForbidden,
		CodeUnknownFilterType,
		CodeInvalidDate,
		CodeInvalidDays:
		return KindValidation

	case CodeInvalidCredentials,
		CodeInvalidCapability,
		CodePermissionDenied,
		CodeNotRecipient:
		return KindAuth

	case CodeDeltaOutOfRange,
		CodeBalanceOutOfRange:
		return KindRange

	case CodeUnknownAccount,
		CodeParcelNotFound:
		return KindNotFound

	case CodeUsernameTaken,
		CodeParcelNotPending:
		return KindConflict

	default:
		return KindInternal
	}
}
