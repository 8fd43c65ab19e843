// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package asdu

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEncodeHeaderBoundary(t *testing.T) {
	id := Identifier{
		Type:              TypeIdentification,
		VariableStructure: 0x81,
		Cause:             4,
		CommonAddr:        1,
		FunctionType:      FunctionDistance,
		InformationNumber: 3,
	}
	got := EncodeHeader(id)
	require.Equal(t, [HeaderSize]byte{5, 0x81, 4, 1, 128, 3}, got)
}

func TestDecodeHeaderRejectsShortBuffer(t *testing.T) {
	_, err := DecodeHeader([]byte{5, 0x81, 4})
	require.ErrorIs(t, err, ErrShortHeader)
}

func TestIdentifierObjectCountAndSequence(t *testing.T) {
	id := Identifier{VariableStructure: 0x83}
	require.True(t, id.IsSequence())
	require.Equal(t, 3, id.ObjectCount())

	id2 := Identifier{VariableStructure: 0x05}
	require.False(t, id2.IsSequence())
	require.Equal(t, 5, id2.ObjectCount())
}

func TestHeaderRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		id := Identifier{
			Type:              TypeID(rapid.Byte().Draw(rt, "type")),
			VariableStructure: rapid.Byte().Draw(rt, "vsq"),
			Cause:             rapid.Byte().Draw(rt, "cot"),
			CommonAddr:        rapid.Byte().Draw(rt, "ca"),
			FunctionType:      FunctionType(rapid.Byte().Draw(rt, "fn")),
			InformationNumber: rapid.Byte().Draw(rt, "inum"),
		}
		buf := EncodeHeader(id)
		got, err := DecodeHeader(buf[:])
		require.NoError(rt, err)
		require.Equal(rt, id, got)
	})
}

func TestCommandAllowedByFunctionType(t *testing.T) {
	require.True(t, CommandAllowed(FunctionDistance, CommandActivateChar4))
	require.False(t, CommandAllowed(FunctionOvercurrent, CommandActivateChar1))
	require.True(t, CommandAllowed(FunctionLineDiff, CommandLedReset))
	require.False(t, CommandAllowed(FunctionLineDiff, CommandTeleprotectionOnOff))
	require.True(t, CommandAllowed(FunctionTransformerDiff, CommandProtectionOnOff))
	require.False(t, CommandAllowed(FunctionTransformerDiff, CommandAutoReclocerOnOff))
	require.False(t, CommandAllowed(FunctionGeneric, CommandLedReset))
}
