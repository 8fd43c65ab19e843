// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

// Package disturbance reassembles a disturbance (fault) recording from
// the sequence of ASDUs a 103 slave emits for types 23 and 26..=31, and
// emits the ASDU 24 orders that drive the slave through that sequence.
// See original_source/Open103/IEC8705103Manager.h's
// DisturbanceRequest/DisturbanceTransfer/DisturbanceChannel/
// DisturbanceTagsGet/DisturbanceChannelGet/DisturbanceEnd, which resolve
// every byte offset left implicit by the companion standard text.
package disturbance

import (
	"sort"
	"time"

	"github.com/marrasen/go-iec103/asdu"
)

// Tag is one (function_type, information_number, double-point) triple
// carried in a tag batch (ASDU 29). DIP is the raw wire value (0..3);
// State subtracts one, per the companion standard's "channel state =
// DIP - 1" convention.
type Tag struct {
	FunctionType      asdu.FunctionType
	InformationNumber byte
	DIP               byte
}

// State returns the tag's decoded channel state.
func (t Tag) State() int { return int(t.DIP) - 1 }

// TagBlock is one ASDU 29 batch: NOT tags becoming effective at sample
// index TAP.
type TagBlock struct {
	TAP  uint16
	Tags []Tag
}

// Channel is one analog channel of a disturbance record: its ASDU 27
// descriptor plus the ASDU 30 sample batches accumulated for it.
type Channel struct {
	TOV     byte
	FAN     uint16
	ACC     byte
	RPV     float32
	RSV     float32
	RFA     float32
	NDV     byte
	NFE     uint16
	Samples []int16
}

// Record is the fully or partially assembled disturbance recording. It
// is owned exclusively by an Assembler; Assembler.Record returns a deep
// copy safe to hand to a caller (spec §3's "Application Manager
// exposes only an immutable view").
type Record struct {
	FaultNumber        uint16
	SamplingIntervalUS uint16
	StartTime          time.Time
	EventTime          time.Time
	ChannelElements    uint16
	Channels           map[byte]*Channel
	TagBlocks          []TagBlock
}

func newRecord() Record {
	return Record{Channels: make(map[byte]*Channel)}
}

// ChannelsSorted returns the record's channels as a slice ordered by
// ACC, convenient for deterministic iteration (e.g. COMTRADE export).
func (r Record) ChannelsSorted() []Channel {
	out := make([]Channel, 0, len(r.Channels))
	accs := make([]byte, 0, len(r.Channels))
	for acc := range r.Channels {
		accs = append(accs, acc)
	}
	sort.Slice(accs, func(i, j int) bool { return accs[i] < accs[j] })
	for _, acc := range accs {
		out = append(out, *r.Channels[acc])
	}
	return out
}

func (r Record) clone() Record {
	cp := r
	cp.Channels = make(map[byte]*Channel, len(r.Channels))
	for acc, ch := range r.Channels {
		chCopy := *ch
		chCopy.Samples = append([]int16(nil), ch.Samples...)
		cp.Channels[acc] = &chCopy
	}
	cp.TagBlocks = append([]TagBlock(nil), r.TagBlocks...)
	for i, tb := range cp.TagBlocks {
		cp.TagBlocks[i].Tags = append([]Tag(nil), tb.Tags...)
	}
	return cp
}
