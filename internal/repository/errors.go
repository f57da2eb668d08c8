package repository

import "errors"

// ErrUnavailable indicates the outcome store could not service a request
// (connection lost, file locked, disk full, etc).
var ErrUnavailable = errors.New("repository: store unavailable")
