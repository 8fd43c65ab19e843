// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

// Package asdu encodes and decodes the application service data unit
// header used by the 103 companion standard: a 6-octet DUI+IFI pair,
// fixed-width rather than the variable common-address-size header of
// 101/104 (see companion standard 103, subclass 6.1). CP56Time2a, the
// binary time tag shared across 101/103/104, also lives here.
package asdu

import "fmt"

// HeaderSize is the wire length of an ASDU header: 4-byte DUI followed
// by 2-byte IFI. See original_source/Open103/IEC8705103Manager.h
// ASDUHeaderSize.
const HeaderSize = 6

// sequenceFlag, when set on VariableStructure, indicates the
// information objects share a single information-object address that
// increments implicitly rather than each carrying its own address.
const sequenceFlag = 0x80

// Identifier is the 6-octet DUI+IFI pair that prefixes every ASDU.
// Unlike the 101/104 Identifier this package's teacher carried, the
// common address here is always one octet (103 has no configurable
// address width) and InfoObjAddr is replaced by the fixed
// FunctionType/InformationNumber pair 103 uses in its place.
type Identifier struct {
	Type              TypeID
	VariableStructure byte // low 7 bits: count of information objects; bit 7: sequence flag
	Cause             byte
	CommonAddr        byte // equals link address; 255 = global
	FunctionType      FunctionType
	InformationNumber byte
}

// ObjectCount reports how many information objects the variable
// structure qualifier declares.
func (id Identifier) ObjectCount() int {
	return int(id.VariableStructure &^ sequenceFlag)
}

// IsSequence reports whether the information objects share a single
// incrementing address.
func (id Identifier) IsSequence() bool {
	return id.VariableStructure&sequenceFlag != 0
}

func (id Identifier) String() string {
	return fmt.Sprintf("type=%d vsq=0x%02x cot=%d ca=%d fn=%s inum=%d",
		id.Type, id.VariableStructure, id.Cause, id.CommonAddr, id.FunctionType, id.InformationNumber)
}

// EncodeHeader packs id into its 6-octet wire form.
func EncodeHeader(id Identifier) [HeaderSize]byte {
	return [HeaderSize]byte{
		byte(id.Type),
		id.VariableStructure,
		id.Cause,
		id.CommonAddr,
		byte(id.FunctionType),
		id.InformationNumber,
	}
}

// DecodeHeader unpacks the first 6 bytes of buf into an Identifier.
func DecodeHeader(buf []byte) (Identifier, error) {
	if len(buf) < HeaderSize {
		return Identifier{}, fmt.Errorf("asdu: %w: need %d bytes, got %d", ErrShortHeader, HeaderSize, len(buf))
	}
	return Identifier{
		Type:              TypeID(buf[0]),
		VariableStructure: buf[1],
		Cause:             buf[2],
		CommonAddr:        buf[3],
		FunctionType:      FunctionType(buf[4]),
		InformationNumber: buf[5],
	}, nil
}
