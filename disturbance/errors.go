// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package disturbance

import (
	"errors"
	"fmt"
)

// ErrShortPayload is returned when an ASDU's payload is too short for
// its type's fixed fields.
var ErrShortPayload = errors.New("disturbance: payload too short")

// OutOfSequenceError reports that an ASDU arrived while the assembler
// was in a phase that does not expect it (spec §5: "out-of-sequence
// ASDUs for the same fault number are not tolerated"). The in-progress
// record is discarded and the assembler returns to idle.
type OutOfSequenceError struct {
	Got      int
	Expected string
}

func (e *OutOfSequenceError) Error() string {
	return fmt.Sprintf("disturbance: type %d unexpected while awaiting %s", e.Got, e.Expected)
}
