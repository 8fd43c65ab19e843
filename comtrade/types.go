// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

// Package comtrade renders an assembled disturbance recording
// (disturbance.Record) as a COMTRADE 1999 ASCII file pair (.cfg/.dat),
// the interchange format the companion standard's disturbance-transfer
// procedure exists to feed. See
// original_source/Open103/IEC8705103Manager.h's SaveToComtrade, whose
// field order and formatting this package follows; Save documents where
// its .dat sample loop differs.
package comtrade

import "github.com/marrasen/go-iec103/asdu"

// AnalogChannel describes one analog channel slot of the exported
// record. Source names the disturbance channel (its ACC, see
// disturbance.Channel) this slot draws samples from; a nil Source
// means the slot has no data, and Save writes it as a zero column
// rather than omitting it, so every row keeps the column count the
// .cfg header declares — replacing the original's channelCode==0
// sentinel, which instead skipped the slot outright.
type AnalogChannel struct {
	ChannelID        string
	Phase            string
	CircuitComponent string
	Unit             string
	Source           *uint8
}

// DigitalChannel describes one digital (tag-driven) channel slot. Its
// current value tracks the most recent tag matching FunctionType and
// InformationNumber, per tag batches applied during export.
type DigitalChannel struct {
	ChannelID         string
	Phase             string
	CircuitComponent  string
	NormalState       string
	FunctionType      asdu.FunctionType
	InformationNumber byte
}
