// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package ft12

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEncodeFixedFrameBoundary(t *testing.T) {
	got := Encode(Frame{Kind: KindFixed, Control: 0x49, Address: 0x01})
	require.Equal(t, []byte{0x10, 0x49, 0x01, 0x4A, 0x16}, got)
}

func TestEncodeVariableFrameBoundary(t *testing.T) {
	got := Encode(Frame{Kind: KindVariable, Control: 0x73, Address: 0x01, UserData: []byte{0xAA}})
	require.Equal(t, []byte{0x68, 0x03, 0x03, 0x68, 0x73, 0x01, 0xAA, 0x1E, 0x16}, got)
}

func TestDecodeSingleAck(t *testing.T) {
	f, err := Decode([]byte{0xE5})
	require.NoError(t, err)
	require.Equal(t, KindAck, f.Kind)
	require.Empty(t, f.UserData)
}

func TestDecodeRejectsLengthMismatch(t *testing.T) {
	buf := Encode(Frame{Kind: KindVariable, Control: 0x73, Address: 0x01, UserData: []byte{0xAA}})
	buf[2] = 0x04 // second length byte now disagrees with the first
	_, err := Decode(buf)
	require.Error(t, err)
	var ife *InvalidFrameError
	require.ErrorAs(t, err, &ife)
	require.Equal(t, CategoryLengthMismatch, ife.Category)
}

func TestDecodeRejectsBadChecksum(t *testing.T) {
	buf := Encode(Frame{Kind: KindVariable, Control: 0x73, Address: 0x01, UserData: []byte{0xAA}})
	buf[6] ^= 0xFF // flip the sole user-data byte
	_, err := Decode(buf)
	require.Error(t, err)
	var ife *InvalidFrameError
	require.ErrorAs(t, err, &ife)
	require.Equal(t, CategoryBadChecksum, ife.Category)
}

func TestDecodeTruncated(t *testing.T) {
	_, err := Decode([]byte{0x10, 0x49})
	require.Error(t, err)
}

func TestDecodeUnknownStart(t *testing.T) {
	_, err := Decode([]byte{0x00, 0x01, 0x02, 0x03, 0x04})
	require.Error(t, err)
	var ife *InvalidFrameError
	require.ErrorAs(t, err, &ife)
	require.Equal(t, CategoryBadStart, ife.Category)
}

func TestRoundTripFixed(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := Frame{
			Kind:    KindFixed,
			Control: rapid.Byte().Draw(rt, "control"),
			Address: rapid.Byte().Draw(rt, "address"),
		}
		got, err := Decode(Encode(f))
		require.NoError(rt, err)
		require.Equal(rt, f, got)
	})
}

func TestRoundTripVariable(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := Frame{
			Kind:     KindVariable,
			Control:  rapid.Byte().Draw(rt, "control"),
			Address:  rapid.Byte().Draw(rt, "address"),
			UserData: rapid.SliceOfN(rapid.Byte(), 1, 200).Draw(rt, "userData"),
		}
		got, err := Decode(Encode(f))
		require.NoError(rt, err)
		require.Equal(rt, f, got)
	})
}

func TestChecksumIsSumModulo256(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		control := rapid.Byte().Draw(rt, "control")
		address := rapid.Byte().Draw(rt, "address")
		data := rapid.SliceOfN(rapid.Byte(), 0, 32).Draw(rt, "data")

		var want byte
		want += control
		want += address
		for _, b := range data {
			want += b
		}
		require.Equal(rt, want, checksum(control, address, data))
	})
}
