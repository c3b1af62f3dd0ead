package session

import "errors"

var ErrNotReady = errors.New("screener data is not loaded yet")
