// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package disturbance

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/marrasen/go-iec103/asdu"
)

// Progress reports what effect Feed had on the assembler's state.
type Progress int

const (
	// ProgressIgnored means the ASDU did not advance the state machine:
	// either its type is not one this package dispatches on, or it is
	// ASDU 23 arriving while the slave reports a transfer already under
	// way (SOF bit 1 set).
	ProgressIgnored Progress = iota
	ProgressRequested
	ProgressHeaderReceived
	ProgressChannelStarted
	ProgressSamplesAccumulated
	ProgressTagsRequested
	ProgressTagBlockReceived
	ProgressSealed
	ProgressAborted
)

func (p Progress) String() string {
	switch p {
	case ProgressIgnored:
		return "ignored"
	case ProgressRequested:
		return "requested"
	case ProgressHeaderReceived:
		return "header received"
	case ProgressChannelStarted:
		return "channel started"
	case ProgressSamplesAccumulated:
		return "samples accumulated"
	case ProgressTagsRequested:
		return "tags requested"
	case ProgressTagBlockReceived:
		return "tag block received"
	case ProgressSealed:
		return "sealed"
	case ProgressAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Order is the ASDU 24 the caller must send back to the slave after
// Feed advances the state machine. See spec §4.F's inbound/outbound
// order table.
type Order struct {
	Code byte
	TOV  byte
	FAN  uint16
	ACC  byte
}

// Order codes, one per row of the inbound/outbound table.
const (
	orderRequestTransfer   byte = 1
	orderConfirmHeader     byte = 2
	orderRequestChannel    byte = 8
	orderRequestTags       byte = 16
	orderEndOK             byte = 64
	orderEndAbortProtected byte = 65
	orderEndNegative1      byte = 66
	orderEndAbortChannel   byte = 67
	orderEndNegative2      byte = 68
	orderEndAbortTags      byte = 69
)

type phase int

const (
	phaseIdle phase = iota
	phaseRequested
	phaseReceivingHeader
	phaseChannelRequested
	phaseTagsRequested
)

// Assembler reconstructs a single disturbance recording at a time from
// the ASDU stream a 103 slave emits for types 23 and 26..=31. It is the
// exclusive owner of the in-progress Record; callers only ever see a
// copy of it via Record, complete once Feed has returned ProgressSealed.
type Assembler struct {
	phase  phase
	rec    Record
	curACC byte
}

// NewAssembler returns an Assembler ready to receive a fresh ASDU 23.
func NewAssembler() *Assembler {
	return &Assembler{phase: phaseIdle, rec: newRecord()}
}

// Feed advances the state machine with one inbound ASDU. payload is the
// ASDU's information content, i.e. everything after its 6-octet header.
// The returned Order, when non-nil, must be sent to the slave as ASDU
// 24 (type, VSQ=129, COT=31, common_address=addr, function_type, info=0)
// with Order's four fields as its payload.
func (a *Assembler) Feed(id asdu.Identifier, payload []byte) (Progress, *Order, error) {
	switch id.Type {
	case asdu.TypeDisturbanceRequest:
		return a.onRequest(payload)
	case asdu.TypeDisturbanceHeader:
		return a.onHeader(payload)
	case asdu.TypeDisturbanceChannel:
		return a.onChannel(payload)
	case asdu.TypeDisturbanceChannelSamples:
		return a.onSamples(payload)
	case asdu.TypeDisturbanceTagsAnnounce:
		return a.onTagsAnnounce(payload)
	case asdu.TypeDisturbanceTagValues:
		return a.onTagValues(payload)
	case asdu.TypeDisturbanceEnd:
		return a.onEnd(payload)
	default:
		return ProgressIgnored, nil, nil
	}
}

// Record returns a snapshot of the record assembled so far. It is only
// meaningful to call this right after a ProgressSealed result; at any
// other time it reflects in-progress, possibly partial state.
func (a *Assembler) Record() Record { return a.rec.clone() }

func (a *Assembler) reset() { a.phase = phaseIdle; a.rec = newRecord(); a.curACC = 0 }

// onRequest handles ASDU 23 (fault indication). See
// original_source/Open103/IEC8705103Manager.h DisturbanceRequest: FAN(2
// LE), SOF(1), EventTime CP56Time2a(7).
func (a *Assembler) onRequest(p []byte) (Progress, *Order, error) {
	if len(p) < 10 {
		return ProgressIgnored, nil, ErrShortPayload
	}
	fan := binary.LittleEndian.Uint16(p)
	sof := p[2]
	eventTime := asdu.ParseCP56Time2a(p[3:10], nil)

	if sof&0x02 != 0 {
		return ProgressIgnored, nil, nil
	}

	a.reset()
	a.phase = phaseRequested
	a.rec.EventTime = eventTime
	return ProgressRequested, &Order{Code: orderRequestTransfer, TOV: 0, FAN: fan}, nil
}

// onHeader handles ASDU 26 (fault header). Layout: TOV(1), FAN(2 LE),
// NOF(2 LE), NOC(1), NOE(2 LE), INT(2 LE) = 10 bytes, then StartTime
// CP56Time2a(7). Start-time's day/month/year are patched from the ASDU
// 23 event time per spec §4.F.
func (a *Assembler) onHeader(p []byte) (Progress, *Order, error) {
	if a.phase != phaseRequested {
		a.reset()
		return ProgressAborted, nil, &OutOfSequenceError{Got: int(asdu.TypeDisturbanceHeader), Expected: "requested"}
	}
	if len(p) < 17 {
		return ProgressIgnored, nil, ErrShortPayload
	}
	tov := p[0]
	fan := binary.LittleEndian.Uint16(p[1:3])
	noc := p[5]
	noe := binary.LittleEndian.Uint16(p[6:8])
	interval := binary.LittleEndian.Uint16(p[8:10])
	startTime := asdu.ParseCP56Time2a(p[10:17], a.rec.EventTime.Location())
	startTime = patchDate(startTime, a.rec.EventTime)
	_ = noc // number of channels to expect; neither stored on Record nor returned

	a.rec.FaultNumber = fan
	a.rec.SamplingIntervalUS = interval
	a.rec.ChannelElements = noe
	a.rec.StartTime = startTime
	a.phase = phaseReceivingHeader
	return ProgressHeaderReceived, &Order{Code: orderConfirmHeader, TOV: tov, FAN: fan}, nil
}

// onChannel handles ASDU 27 (channel descriptor). Layout: TOV(1),
// FAN(2 LE), ACC(1), RPV(4 float32 LE), RSV(4 float32 LE), RFA(4
// float32 LE) = 16 bytes.
func (a *Assembler) onChannel(p []byte) (Progress, *Order, error) {
	if a.phase != phaseReceivingHeader && a.phase != phaseChannelRequested {
		a.reset()
		return ProgressAborted, nil, &OutOfSequenceError{Got: int(asdu.TypeDisturbanceChannel), Expected: "receiving header or channel requested"}
	}
	if len(p) < 16 {
		return ProgressIgnored, nil, ErrShortPayload
	}
	tov := p[0]
	fan := binary.LittleEndian.Uint16(p[1:3])
	acc := p[3]
	rpv := math.Float32frombits(binary.LittleEndian.Uint32(p[4:8]))
	rsv := math.Float32frombits(binary.LittleEndian.Uint32(p[8:12]))
	rfa := math.Float32frombits(binary.LittleEndian.Uint32(p[12:16]))

	a.rec.Channels[acc] = &Channel{TOV: tov, FAN: fan, ACC: acc, RPV: rpv, RSV: rsv, RFA: rfa}
	a.curACC = acc
	a.phase = phaseChannelRequested
	return ProgressChannelStarted, &Order{Code: orderRequestChannel, TOV: tov, FAN: fan, ACC: acc}, nil
}

// onSamples handles ASDU 30 (channel sample batch). Layout: TOV(1),
// FAN(2 LE), ACC(1), NDV(1), NFE(2 LE) = 7 bytes, then NDV signed
// 16-bit little-endian samples. No order is emitted for this type.
func (a *Assembler) onSamples(p []byte) (Progress, *Order, error) {
	if a.phase != phaseChannelRequested {
		a.reset()
		return ProgressAborted, nil, &OutOfSequenceError{Got: int(asdu.TypeDisturbanceChannelSamples), Expected: "channel requested"}
	}
	if len(p) < 7 {
		return ProgressIgnored, nil, ErrShortPayload
	}
	acc := p[3]
	ndv := p[4]
	nfe := binary.LittleEndian.Uint16(p[5:7])
	if len(p) < 7+int(ndv)*2 {
		return ProgressIgnored, nil, ErrShortPayload
	}
	ch, ok := a.rec.Channels[acc]
	if !ok || acc != a.curACC {
		a.reset()
		return ProgressAborted, nil, &OutOfSequenceError{Got: int(asdu.TypeDisturbanceChannelSamples), Expected: "samples for the requested channel"}
	}
	ch.TOV = p[0]
	ch.NDV = ndv
	ch.NFE = nfe

	needed := int(nfe) + int(ndv)
	if len(ch.Samples) < needed {
		grown := make([]int16, needed)
		copy(grown, ch.Samples)
		ch.Samples = grown
	}
	for i := 0; i < int(ndv); i++ {
		raw := binary.LittleEndian.Uint16(p[7+2*i : 9+2*i])
		ch.Samples[int(nfe)+i] = int16(raw)
	}
	return ProgressSamplesAccumulated, nil, nil
}

// onTagsAnnounce handles ASDU 28 (channel list complete, tags ready).
// Layout: TOV(1), ACC(1, unused), FAN(2 LE) = 4 bytes. The order's TOV
// is hard-coded to 1 rather than echoed from the payload, matching
// original_source/Open103/IEC8705103Manager.h DisturbanceTags.
func (a *Assembler) onTagsAnnounce(p []byte) (Progress, *Order, error) {
	if a.phase != phaseChannelRequested {
		a.reset()
		return ProgressAborted, nil, &OutOfSequenceError{Got: int(asdu.TypeDisturbanceTagsAnnounce), Expected: "channel requested"}
	}
	if len(p) < 4 {
		return ProgressIgnored, nil, ErrShortPayload
	}
	fan := binary.LittleEndian.Uint16(p[2:4])
	a.phase = phaseTagsRequested
	return ProgressTagsRequested, &Order{Code: orderRequestTags, TOV: 1, FAN: fan}, nil
}

// onTagValues handles ASDU 29 (tag batch). Layout: FAN(2 LE), NOT(1),
// TAP(2, byte-swapped: high<<8|low per spec §6), reserved(3), then NOT
// triples of (function_type, information_number, DIP). No order is
// emitted for this type.
func (a *Assembler) onTagValues(p []byte) (Progress, *Order, error) {
	if a.phase != phaseTagsRequested {
		a.reset()
		return ProgressAborted, nil, &OutOfSequenceError{Got: int(asdu.TypeDisturbanceTagValues), Expected: "tags requested"}
	}
	if len(p) < 8 {
		return ProgressIgnored, nil, ErrShortPayload
	}
	not := p[2]
	tap := uint16(p[4])<<8 | uint16(p[3])
	if len(p) < 8+int(not)*3 {
		return ProgressIgnored, nil, ErrShortPayload
	}
	tags := make([]Tag, not)
	for i := 0; i < int(not); i++ {
		off := 8 + 3*i
		tags[i] = Tag{
			FunctionType:      asdu.FunctionType(p[off]),
			InformationNumber: p[off+1],
			DIP:               p[off+2],
		}
	}
	a.rec.TagBlocks = append(a.rec.TagBlocks, TagBlock{TAP: tap, Tags: tags})
	return ProgressTagBlockReceived, nil, nil
}

// onEnd handles ASDU 31 (termination). Layout: TOO(1), TOV(1), FAN(2
// LE), ACC(1) = 5 bytes. TOO=32 seals the record; every other code
// discards it, matching original_source's single success branch
// (respcode==64) with no further special-casing of the other codes.
func (a *Assembler) onEnd(p []byte) (Progress, *Order, error) {
	if len(p) < 5 {
		return ProgressIgnored, nil, ErrShortPayload
	}
	too := p[0]
	tov := p[1]
	fan := binary.LittleEndian.Uint16(p[2:4])
	acc := p[4]

	var code byte
	switch too {
	case 32:
		code = orderEndOK
	case 34:
		code = orderEndAbortProtected
	case 35:
		code = orderEndNegative1
	case 37:
		code = orderEndAbortChannel
	case 38:
		code = orderEndNegative2
	case 40:
		code = orderEndAbortTags
	default:
		a.reset()
		return ProgressAborted, nil, nil
	}

	order := &Order{Code: code, TOV: tov, FAN: fan, ACC: acc}
	if too == 32 {
		a.phase = phaseIdle
		return ProgressSealed, order, nil
	}
	a.reset()
	return ProgressAborted, order, nil
}

// patchDate replaces start's calendar date with event's, keeping
// start's time-of-day. See spec §4.F "Start-time patching".
func patchDate(start, event time.Time) time.Time {
	y, m, d := event.Date()
	hh, mm, ss := start.Clock()
	return time.Date(y, m, d, hh, mm, ss, start.Nanosecond(), start.Location())
}
