// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

// Package link implements the IEC 60870-5-1 primary-station link layer
// dialog (reset, user data transfer, status, class polling) on top of
// an FT1.2 byte stream. It is synchronous by design: one goroutine
// owns a Manager at a time, following spec §5's concurrency redesign
// away from the teacher's multi-goroutine cs104.Client.
package link

import "io"

// ByteChannel is the minimal transport a Manager needs: a blocking
// byte stream, typically a serial port or a net.Conn. A zero-byte Read
// returning nil or io.EOF is treated as connection closed (see
// ErrChannelClosed).
type ByteChannel interface {
	io.Reader
	io.Writer
}

func readFull(ch ByteChannel, n int) ([]byte, error) {
	buf := make([]byte, n)
	read := 0
	for read < n {
		k, err := ch.Read(buf[read:])
		if k == 0 && (err == nil || err == io.EOF) {
			return nil, ErrChannelClosed
		}
		if err != nil {
			return nil, &TransportError{Op: "read", Err: err}
		}
		read += k
	}
	return buf, nil
}
