// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package comtrade

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marrasen/go-iec103/asdu"
	"github.com/marrasen/go-iec103/disturbance"
)

func sampleRecord() disturbance.Record {
	ch1 := byte(1)
	rec := disturbance.Record{
		FaultNumber:        7,
		SamplingIntervalUS: 1000,
		StartTime:          time.Date(2023, time.July, 4, 13, 45, 30, 100_000_000, time.UTC),
		EventTime:          time.Date(2023, time.July, 4, 13, 45, 30, 0, time.UTC),
		ChannelElements:    5,
		Channels: map[byte]*disturbance.Channel{
			ch1: {
				RPV:     1.5,
				RSV:     2.5,
				RFA:     16384,
				Samples: []int16{1, -1, 2, -2, 3},
			},
		},
		TagBlocks: []disturbance.TagBlock{
			{TAP: 0, Tags: []disturbance.Tag{{FunctionType: asdu.FunctionDistance, InformationNumber: 1, DIP: 2}}},
			{TAP: 2, Tags: []disturbance.Tag{{FunctionType: asdu.FunctionDistance, InformationNumber: 1, DIP: 1}}},
		},
	}
	return rec
}

func testChannels() ([]AnalogChannel, []DigitalChannel) {
	src := byte(1)
	analog := []AnalogChannel{
		{ChannelID: "IL1", Phase: "A", CircuitComponent: "", Unit: "A", Source: &src},
	}
	digital := []DigitalChannel{
		{ChannelID: "TRIP", Phase: "", CircuitComponent: "", NormalState: "0",
			FunctionType: asdu.FunctionDistance, InformationNumber: 1},
	}
	return analog, digital
}

func TestSaveProducesCfgAndDat(t *testing.T) {
	dir := t.TempDir()
	rec := sampleRecord()
	analog, digital := testChannels()

	path := filepath.Join(dir, "rec1")
	require.NoError(t, Save(path, "STATION", 1, rec, analog, digital, "50"))

	cfg, err := os.ReadFile(path + ".cfg")
	require.NoError(t, err)
	require.Contains(t, string(cfg), "STATION,1,1999\r\n")
	require.Contains(t, string(cfg), "2,1A,1D\r\n")
	require.Contains(t, string(cfg), "ASCII\r\n1.0")

	dat, err := os.ReadFile(path + ".dat")
	require.NoError(t, err)
	require.Contains(t, string(dat), "1,0,1,1\r\n")  // seeded digital state (DIP=2 -> State=1) at row 1
	require.Contains(t, string(dat), "3,2000,2,0\r\n") // row 3 (i=2): tag block TAP==2 flips state to 0
}

func TestSaveIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	rec := sampleRecord()
	analog, digital := testChannels()

	p1 := filepath.Join(dir, "a")
	p2 := filepath.Join(dir, "b")
	require.NoError(t, Save(p1, "STATION", 1, rec, analog, digital, "50"))
	require.NoError(t, Save(p2, "STATION", 1, rec, analog, digital, "50"))

	cfg1, err := os.ReadFile(p1 + ".cfg")
	require.NoError(t, err)
	cfg2, err := os.ReadFile(p2 + ".cfg")
	require.NoError(t, err)
	require.Equal(t, cfg1, cfg2)

	dat1, err := os.ReadFile(p1 + ".dat")
	require.NoError(t, err)
	dat2, err := os.ReadFile(p2 + ".dat")
	require.NoError(t, err)
	require.Equal(t, dat1, dat2)
}

func TestSaveWritesZeroForUnresolvedAnalogSource(t *testing.T) {
	dir := t.TempDir()
	rec := sampleRecord()
	missing := byte(9)
	analog := []AnalogChannel{{ChannelID: "UNUSED", Source: &missing}}

	path := filepath.Join(dir, "rec")
	require.NoError(t, Save(path, "STATION", 1, rec, analog, nil, "50"))

	dat, err := os.ReadFile(path + ".dat")
	require.NoError(t, err)
	require.Contains(t, string(dat), "1,0,0\r\n")
}
