// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package asdu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCP56Time2aBoundary(t *testing.T) {
	loc := time.FixedZone("no-dst", 0)
	ts := time.Date(2023, time.July, 4, 13, 45, 30, 250*int(time.Millisecond), loc)

	got := CP56Time2a(ts, loc)
	require.Len(t, got, 7)
	require.Equal(t, uint16(30250), uint16(got[0])|uint16(got[1])<<8)
	require.Equal(t, byte(45), got[2])
	require.Equal(t, byte(13|0x80), got[3])
	require.Equal(t, byte(4), got[4]&0x1f)
	require.Equal(t, byte(7), got[5])
	require.Equal(t, byte(23), got[6])
}

func TestCP56Time2aRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		year := rapid.IntRange(2000, 2099).Draw(rt, "year")
		month := rapid.IntRange(1, 12).Draw(rt, "month")
		day := rapid.IntRange(1, 28).Draw(rt, "day")
		hour := rapid.IntRange(0, 23).Draw(rt, "hour")
		min := rapid.IntRange(0, 59).Draw(rt, "min")
		sec := rapid.IntRange(0, 59).Draw(rt, "sec")
		msec := rapid.IntRange(0, 999).Draw(rt, "msec")

		ts := time.Date(year, time.Month(month), day, hour, min, sec, msec*int(time.Millisecond), time.UTC)
		got := ParseCP56Time2a(CP56Time2a(ts, time.UTC), time.UTC)
		require.True(rt, ts.Equal(got))
	})
}

func TestParseCP56Time2aInvalidMinuteYieldsZero(t *testing.T) {
	b := []byte{0, 0, 0x80, 0, 0, 0, 0}
	require.True(t, ParseCP56Time2a(b, time.UTC).IsZero())
}
