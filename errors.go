package dbmysql

import "errors"

// ErrNotStarted is returned when the facility is used before Start().
var ErrNotStarted = errors.New("dbmysql: facility not started")

// ErrAlreadyStarted is returned by Start() on a running facility.
var ErrAlreadyStarted = errors.New("dbmysql: facility already started")
