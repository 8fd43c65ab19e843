// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package master

import (
	"errors"
	"fmt"

	"github.com/marrasen/go-iec103/asdu"
)

// ErrUnsupportedCommand is returned by CommandTransmission when the
// negotiated function type does not permit cmd, per
// asdu.CommandAllowed. No bytes are written to the link in this case.
var ErrUnsupportedCommand = errors.New("master: command not supported by this function type")

// ErrNotInitialized is returned by CommandTransmission when no
// StationInit has succeeded yet, since it needs the negotiated function
// type. TimeSync and GeneralInterrogation address FunctionGlobal and do
// not check.
var ErrNotInitialized = errors.New("master: station not initialized")

// IdentificationError reports that StationInit received an unexpected
// or malformed welcome message (ASDU 5).
type IdentificationError struct {
	Got asdu.TypeID
	Why string
}

func (e *IdentificationError) Error() string {
	return fmt.Sprintf("master: station init: %s (type=%d)", e.Why, e.Got)
}

func unsupportedCommand(function asdu.FunctionType, cmd asdu.Command) error {
	return fmt.Errorf("%w: function=%s command=%s", ErrUnsupportedCommand, function, cmd)
}
