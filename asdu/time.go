// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package asdu

import (
	"encoding/binary"
	"time"
)

// CP56Time2a, seven-octet binary time.
// |         Milliseconds(D7--D0)        | Milliseconds = 0-59999
// |         Milliseconds(D15--D8)       |
// | IV(D7)   RES1(D6)  Minutes(D5--D0)  | Minutes = 0-59, IV = invalid
// | SU(D7)   RES2(D6-D5)  Hours(D4--D0) | Hours = 0-23, SU = set by CP56Time2a outside DST
// | DayOfWeek(D7--D5) DayOfMonth(D4--D0)| DayOfMonth = 1-31  DayOfWeek = 1(Mon)-7(Sun)
// | RES3(D7--D4)        Months(D3--D0)  | Months = 1-12
// | RES4(D7)            Year(D6--D0)    | Year = 0-99, offset from 2000
//
// See companion standard 101, subclass 7.2.6.18, and
// original_source/Open103/IEC8705103Manager.h cp56Time2A_.

// CP56Time2a encodes t, interpreted in loc, to the seven-octet wire form.
// The summer-time bit (byte 3, bit 7) is set when loc's standard
// (non-DST) offset applies at t.
func CP56Time2a(t time.Time, loc *time.Location) []byte {
	if loc == nil {
		loc = time.UTC
	}
	ts := t.In(loc)
	msec := ts.Nanosecond()/int(time.Millisecond) + ts.Second()*1000

	hour := byte(ts.Hour())
	if !observesDST(ts) {
		hour |= 0x80
	}

	return []byte{
		byte(msec), byte(msec >> 8),
		byte(ts.Minute()),
		hour,
		byte(isoWeekday(ts.Weekday())<<5) | byte(ts.Day()),
		byte(ts.Month()),
		byte(ts.Year() - 2000),
	}
}

// ParseCP56Time2a reads 7 bytes and returns a time.Time in loc. The year
// is assumed to be in the 21st century (2000-based encoding). An invalid
// minute field (IV bit set) yields the zero time.
func ParseCP56Time2a(b []byte, loc *time.Location) time.Time {
	if len(b) < 7 || b[2]&0x80 == 0x80 {
		return time.Time{}
	}
	if loc == nil {
		loc = time.UTC
	}

	x := int(binary.LittleEndian.Uint16(b))
	msec := x % 1000
	sec := x / 1000
	min := int(b[2] & 0x3f)
	hour := int(b[3] & 0x1f)
	day := int(b[4] & 0x1f)
	month := time.Month(b[5] & 0x0f)
	year := 2000 + int(b[6]&0x7f)

	return time.Date(year, month, day, hour, min, sec, msec*int(time.Millisecond), loc)
}

// isoWeekday maps Go's Sunday=0..Saturday=6 to IEC's Monday=1..Sunday=7.
func isoWeekday(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}

// observesDST reports whether t is within daylight-saving time for its
// location, by comparing its UTC offset against the offset in effect on
// January 1st of the same year (assumed to be standard time).
func observesDST(t time.Time) bool {
	_, offset := t.Zone()
	jan := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	_, janOffset := jan.Zone()
	return offset != janOffset
}
