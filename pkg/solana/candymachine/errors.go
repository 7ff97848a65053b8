package candymachine

// Custom error codes raised by the candy machine program. Anchor numbers user
// errors from 300.
const (
	ErrCodeIncorrectOwner           = 300
	ErrCodeUninitialized            = 301
	ErrCodeMintMismatch             = 302
	ErrCodeIndexGreaterThanLength   = 303
	ErrCodeConfigMustHaveAtleastOne = 304
	ErrCodeNumericalOverflow        = 305
	ErrCodeTooManyCreators          = 306
	ErrCodeUUIDMustBeExactly6Length = 307
	ErrCodeNotEnoughTokens          = 308
	ErrCodeNotEnoughSOL             = 309
	ErrCodeTokenTransferFailed      = 310
	ErrCodeCandyMachineEmpty        = 311
	ErrCodeCandyMachineNotLiveYet   = 312
	ErrCodeConfigLineMismatch       = 313
)

type ProgramError struct {
	Code int
	Name string
	Msg  string
}

var programErrors = map[int]ProgramError{
	ErrCodeIncorrectOwner:           {ErrCodeIncorrectOwner, "IncorrectOwner", "Account does not have correct owner!"},
	ErrCodeUninitialized:            {ErrCodeUninitialized, "Uninitialized", "Account is not initialized!"},
	ErrCodeMintMismatch:             {ErrCodeMintMismatch, "MintMismatch", "Mint Mismatch!"},
	ErrCodeIndexGreaterThanLength:   {ErrCodeIndexGreaterThanLength, "IndexGreaterThanLength", "Index greater than length!"},
	ErrCodeConfigMustHaveAtleastOne: {ErrCodeConfigMustHaveAtleastOne, "ConfigMustHaveAtleastOneEntry", "Config must have atleast one entry!"},
	ErrCodeNumericalOverflow:        {ErrCodeNumericalOverflow, "NumericalOverflowError", "Numerical overflow error!"},
	ErrCodeTooManyCreators:          {ErrCodeTooManyCreators, "TooManyCreators", "Can only provide up to 4 creators to candy machine (because candy machine is one)!"},
	ErrCodeUUIDMustBeExactly6Length: {ErrCodeUUIDMustBeExactly6Length, "UuidMustBeExactly6Length", "Uuid must be exactly of 6 length"},
	ErrCodeNotEnoughTokens:          {ErrCodeNotEnoughTokens, "NotEnoughTokens", "Not enough tokens to pay for this minting"},
	ErrCodeNotEnoughSOL:             {ErrCodeNotEnoughSOL, "NotEnoughSOL", "Not enough SOL to pay for this minting"},
	ErrCodeTokenTransferFailed:      {ErrCodeTokenTransferFailed, "TokenTransferFailed", "Token transfer failed"},
	ErrCodeCandyMachineEmpty:        {ErrCodeCandyMachineEmpty, "CandyMachineEmpty", "Candy machine is empty!"},
	ErrCodeCandyMachineNotLiveYet:   {ErrCodeCandyMachineNotLiveYet, "CandyMachineNotLiveYet", "Candy machine is not live yet!"},
	ErrCodeConfigLineMismatch:       {ErrCodeConfigLineMismatch, "ConfigLineMismatch", "Number of config lines must be at least number of items available"},
}

// LookupError returns the built-in description of a program error code
func LookupError(code int) (ProgramError, bool) {
	e, ok := programErrors[code]
	return e, ok
}
