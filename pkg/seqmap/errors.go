package seqmap

import "errors"

var (
	// ErrTooManyProfiles is returned when a sequence references more
	// distinct profiles than a ProfileMask can hold.
	ErrTooManyProfiles = errors.New("seqmap: too many profiles")

	// ErrNotAssignable is returned when an item does not produce the
	// sequence's contract type.
	ErrNotAssignable = errors.New("seqmap: item not assignable to contract")

	// ErrSequenceFinalized is returned when a declaration continues after End.
	ErrSequenceFinalized = errors.New("seqmap: sequence already finalized")

	// ErrInvalidItem is returned for an item that cannot be registered.
	ErrInvalidItem = errors.New("seqmap: invalid item")
)
