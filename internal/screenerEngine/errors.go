package screenerEngine

import "errors"

var (
	ErrAttributeNotFound = errors.New("attribute not found")
	ErrTypeMismatch      = errors.New("filter does not match column type")
)
