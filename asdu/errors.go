// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package asdu

import "errors"

// ErrShortHeader is returned by DecodeHeader when fewer than HeaderSize
// bytes are available.
var ErrShortHeader = errors.New("asdu: header truncated")
