package externalApi

import "errors"

var (
	ErrTransport         = errors.New("error transport")
	ErrInvalidResponse   = errors.New("error invalid response")
	ErrInvalidCredential = errors.New("error invalid credential")
)
