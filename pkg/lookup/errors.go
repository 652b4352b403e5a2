package lookup

import "errors"

// Lookup errors. Every error returned by this package wraps one of these.
var (
	ErrNotRegistered       = errors.New("lookup: no registration")
	ErrInvalidRegistration = errors.New("lookup: invalid registration")
	ErrInvalidRegistry     = errors.New("lookup: registry has invalid registrations")
	ErrInvalidConstructor  = errors.New("lookup: invalid constructor")
	ErrUnknownParameter    = errors.New("lookup: unknown constructor parameter")
	ErrTypeMismatch        = errors.New("lookup: type mismatch")
	ErrCircularDependency  = errors.New("lookup: circular dependency")
)
