package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrorRunLockHeld is returned when another reconciliation run already holds
// the catalog lock.
var ErrorRunLockHeld = errors.New("another reconciliation run is in progress")

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
