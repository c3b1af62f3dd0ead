package service

import "errors"

var (
	ErrEmptyUniverse        = errors.New("error empty ticker universe")
	ErrMalformedBatch       = errors.New("error malformed batch")
	ErrInconsistentBatch    = errors.New("error quotes and fundamentals are inconsistent")
	ErrAcquisitionCancelled = errors.New("error acquisition cancelled")
)
