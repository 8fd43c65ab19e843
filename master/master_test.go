// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package master

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marrasen/go-iec103/asdu"
	"github.com/marrasen/go-iec103/disturbance"
	"github.com/marrasen/go-iec103/ft12"
)

func timeFixture() time.Time {
	return time.Date(2023, time.July, 4, 13, 45, 30, 250_000_000, time.UTC)
}

// scriptedChannel replays a fixed list of reply frames and records every
// write, mirroring link's own test double.
type scriptedChannel struct {
	replies [][]byte
	writes  [][]byte
	pending []byte
}

func (c *scriptedChannel) Write(p []byte) (int, error) {
	cp := append([]byte(nil), p...)
	c.writes = append(c.writes, cp)
	if len(c.replies) > 0 {
		c.pending = append(c.pending, c.replies[0]...)
		c.replies = c.replies[1:]
	}
	return len(p), nil
}

func (c *scriptedChannel) Read(p []byte) (int, error) {
	if len(c.pending) == 0 {
		return 0, nil
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

func identificationFrame(t *testing.T, address byte) []byte {
	t.Helper()
	id := asdu.Identifier{
		Type:              asdu.TypeIdentification,
		VariableStructure: 0x81,
		Cause:             4,
		CommonAddr:        address,
		FunctionType:      asdu.FunctionDistance,
		InformationNumber: 3,
	}
	header := asdu.EncodeHeader(id)
	payload := append(header[:], []byte("\x01identify_str_")...)
	f := ft12.Frame{Kind: ft12.KindVariable, Control: 0x08, Address: address, UserData: payload}
	return ft12.Encode(f)
}

func TestStationInitGolden(t *testing.T) {
	ch := &scriptedChannel{
		replies: [][]byte{
			{ft12.SingleAck},       // reset remote link ack
			{ft12.SingleAck},       // status link ack
			identificationFrame(t, 1), // class 1 poll: welcome message
			{ft12.SingleAck},       // final class 1 poll ack
		},
	}

	m := New(ch, 1)
	err := m.StationInit()
	require.NoError(t, err)
	require.True(t, m.Initialized())
	require.Equal(t, asdu.FunctionDistance, m.FunctionType())
	require.Equal(t, "identify_str_", m.StationName())
}

func TestCommandWithFCBTogglesControlByte(t *testing.T) {
	ch := &scriptedChannel{
		replies: [][]byte{
			{ft12.SingleAck},
			{ft12.SingleAck},
		},
	}
	m := New(ch, 1)
	m.initialized = true
	m.functionType = asdu.FunctionDistance

	require.NoError(t, m.CommandTransmission(asdu.CommandLedReset, asdu.DCOOn, 1))
	require.NoError(t, m.CommandTransmission(asdu.CommandLedReset, asdu.DCOOn, 2))

	require.Len(t, ch.writes, 2)
	f1, err := ft12.Decode(ch.writes[0])
	require.NoError(t, err)
	f2, err := ft12.Decode(ch.writes[1])
	require.NoError(t, err)
	require.Equal(t, f1.Control^ft12.FCB, f2.Control)
}

func TestCommandTransmissionBoundaryUnsupported(t *testing.T) {
	ch := &scriptedChannel{}
	m := New(ch, 1)
	m.initialized = true
	m.functionType = asdu.FunctionOvercurrent

	err := m.CommandTransmission(asdu.CommandActivateChar1, asdu.DCOOn, 1)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnsupportedCommand))
	require.Empty(t, ch.writes)
}

func TestCommandTransmissionRequiresInit(t *testing.T) {
	ch := &scriptedChannel{}
	m := New(ch, 1)
	err := m.CommandTransmission(asdu.CommandLedReset, asdu.DCOOn, 1)
	require.ErrorIs(t, err, ErrNotInitialized)
	require.Empty(t, ch.writes)
}

func TestSendDisturbanceOrderEncodesFAN(t *testing.T) {
	ch := &scriptedChannel{replies: [][]byte{{ft12.SingleAck}}}
	m := New(ch, 3)
	m.functionType = asdu.FunctionDistance

	order := disturbance.Order{Code: 1, TOV: 0, FAN: 0x0102, ACC: 0}
	require.NoError(t, m.SendDisturbanceOrder(order))
	require.Len(t, ch.writes, 1)

	frame, err := ft12.Decode(ch.writes[0])
	require.NoError(t, err)
	id, err := asdu.DecodeHeader(frame.UserData)
	require.NoError(t, err)
	require.Equal(t, asdu.TypeDisturbanceOrder, id.Type)

	body := frame.UserData[asdu.HeaderSize:]
	require.Equal(t, []byte{1, 0, 0x02, 0x01, 0}, body)
}

func TestTimeSyncWritesExpectedHeader(t *testing.T) {
	ch := &scriptedChannel{replies: [][]byte{{ft12.SingleAck}}}
	m := New(ch, 7)

	require.NoError(t, m.TimeSync(timeFixture()))
	require.Len(t, ch.writes, 1)

	frame, err := ft12.Decode(ch.writes[0])
	require.NoError(t, err)
	require.Equal(t, byte(7), frame.Address)

	id, err := asdu.DecodeHeader(frame.UserData)
	require.NoError(t, err)
	require.Equal(t, asdu.TypeTimeSync, id.Type)
	require.Equal(t, asdu.FunctionGlobal, id.FunctionType)
	require.Len(t, frame.UserData[asdu.HeaderSize:], 7)
}
