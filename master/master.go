// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

// Package master drives the application-layer dialog of a 103 primary
// station: negotiating the connected equipment's function type during
// station init, keeping its clock in sync, requesting a general
// interrogation, and sending protection commands. See
// original_source/Open103/IEC8705103Manager.h's StationInit/TimeSync/
// GeneralInterrogation/CommandTrasmission/StationStart, which this
// package follows for sequencing.
package master

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/marrasen/go-iec103/asdu"
	"github.com/marrasen/go-iec103/clog"
	"github.com/marrasen/go-iec103/disturbance"
	"github.com/marrasen/go-iec103/link"
)

// Option configures a Master at construction time, grounded on the
// teacher's cs104/clientOption.go functional-options shape (adapted to
// the same variadic style already used by link.NewManager).
type Option func(*Master)

// WithLogger installs lg as the Master's logger.
func WithLogger(lg clog.Clog) Option {
	return func(m *Master) { m.log = lg }
}

// WithLocation sets the *time.Location TimeSync uses to interpret the
// wall-clock time it sends. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(m *Master) { m.loc = loc }
}

// WithPollClass sets the default class Poll uses. Defaults to 1.
func WithPollClass(class int) Option {
	return func(m *Master) { m.pollClass = class }
}

// Master is the application manager for one 103 station: station init,
// time sync, general interrogation, command transmission, and class
// 1/2 polling, layered on a link.Manager. It is synchronous and not
// safe for concurrent use, per spec §5.
type Master struct {
	link *link.Manager
	log  clog.Clog
	loc  *time.Location

	address   byte
	pollClass int

	initialized             bool
	functionType            asdu.FunctionType
	genericServiceSupported bool
	stationName             string
}

// New returns a Master addressing the station at address over ch.
func New(ch link.ByteChannel, address byte, opts ...Option) *Master {
	m := &Master{
		address:   address,
		loc:       time.Local,
		pollClass: 1,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.link = link.NewManager(ch, address, link.WithLogger(m.log))
	return m
}

// FunctionType returns the equipment category negotiated during the
// last successful StationInit. Valid only once Initialized is true.
func (m *Master) FunctionType() asdu.FunctionType { return m.functionType }

// Initialized reports whether StationInit has completed successfully.
func (m *Master) Initialized() bool { return m.initialized }

// StationName returns the station identification text from the last
// successful StationInit's welcome message, or "" if none arrived yet.
func (m *Master) StationName() string { return m.stationName }

// GenericServiceSupported reports whether the equipment's welcome
// message advertised support for generic services.
func (m *Master) GenericServiceSupported() bool { return m.genericServiceSupported }

// StationInit performs the companion-standard welcome exchange: reset,
// status, then polling class 1 until the equipment's ASDU 5
// identification message arrives. See original_source's StationInit,
// whose two commented-out checks (cause-of-transmission, information
// number) this implementation likewise does not enforce — the source
// itself never uncommented them.
func (m *Master) StationInit() error {
	if err := m.link.ResetRemoteLink(); err != nil {
		return err
	}
	if err := m.link.StatusLink(); err != nil {
		return err
	}

	var payload []byte
	for {
		data, err := m.link.RequestClass1()
		if err != nil {
			return err
		}
		if len(data) > 0 {
			payload = data
			break
		}
	}

	id, err := asdu.DecodeHeader(payload)
	if err != nil {
		return err
	}

	if id.Type != asdu.TypeIdentification {
		if id.Cause >= 3 && id.Cause <= 5 {
			m.log.Debug("master: station reported communication reset (cause=%d)", id.Cause)
			_, err := m.link.RequestClass1()
			return err
		}
		return &IdentificationError{Got: id.Type, Why: "expected an identification message"}
	}

	if id.CommonAddr != m.address {
		return &IdentificationError{Got: id.Type, Why: "common address does not match this station"}
	}

	// original_source extracts the wrong bit range here (bit 7, the
	// sequence flag) despite its own comment demanding "only 1
	// information number" — the object count is what the comment
	// actually means, so that is what this implementation checks.
	if id.ObjectCount() != 1 {
		return &IdentificationError{Got: id.Type, Why: "welcome message must carry exactly one information object"}
	}

	m.functionType = id.FunctionType

	body := payload[asdu.HeaderSize:]
	if len(body) > 0 {
		m.genericServiceSupported = body[0] != 2
	}
	if len(body) > 1 {
		name := body[1:]
		if len(name) > 13 {
			name = name[:13]
		}
		m.stationName = strings.TrimRight(string(name), "\x00")
	}

	if _, err := m.link.RequestClass1(); err != nil {
		return err
	}
	m.initialized = true
	return nil
}

// TimeSync sends t, interpreted in the Master's configured location, as
// a global clock-sync ASDU (type 6).
func (m *Master) TimeSync(t time.Time) error {
	id := asdu.Identifier{
		Type:              asdu.TypeTimeSync,
		VariableStructure: 0x81,
		Cause:             causeSpontaneous,
		CommonAddr:        m.address,
		FunctionType:      asdu.FunctionGlobal,
		InformationNumber: 0,
	}
	header := asdu.EncodeHeader(id)
	payload := append(header[:], asdu.CP56Time2a(t, m.loc)...)
	return m.link.SendUserData(payload, true)
}

// GeneralInterrogation requests a full data refresh, tagging the
// request with scan so replies can be correlated.
func (m *Master) GeneralInterrogation(scan byte) error {
	id := asdu.Identifier{
		Type:              asdu.TypeGeneralInterrogation,
		VariableStructure: 0x81,
		Cause:             causeActivation,
		CommonAddr:        m.address,
		FunctionType:      asdu.FunctionGlobal,
		InformationNumber: 0,
	}
	header := asdu.EncodeHeader(id)
	payload := append(header[:], scan)
	return m.link.SendUserData(payload, true)
}

// CommandTransmission sends cmd with output dco and correlation number
// rii, gated by asdu.CommandAllowed against the function type
// negotiated during StationInit. Unlike original_source's
// CommandTrasmission, which takes FTYPE as a caller-supplied parameter
// distinct from the this->fType used for the permission check, this
// implementation uses the one function type Master already knows from
// StationInit for both the check and the wire header — a caller has no
// legitimate reason to claim a different function type than the one
// the equipment announced.
func (m *Master) CommandTransmission(cmd asdu.Command, dco asdu.DCO, rii byte) error {
	if !m.initialized {
		return ErrNotInitialized
	}
	if !asdu.CommandAllowed(m.functionType, cmd) {
		return unsupportedCommand(m.functionType, cmd)
	}

	id := asdu.Identifier{
		Type:              asdu.TypeGeneralCommand,
		VariableStructure: 0x81,
		Cause:             causeCommand,
		CommonAddr:        m.address,
		FunctionType:      m.functionType,
		InformationNumber: byte(cmd),
	}
	header := asdu.EncodeHeader(id)
	payload := append(header[:], byte(dco), rii)
	return m.link.SendUserData(payload, true)
}

// SendDisturbanceOrder sends o as an ASDU 24, acknowledging or
// advancing the disturbance-transfer dialog a disturbance.Assembler is
// driving. Callers pass the Order returned by Assembler.Feed straight
// through.
func (m *Master) SendDisturbanceOrder(o disturbance.Order) error {
	id := asdu.Identifier{
		Type:              asdu.TypeDisturbanceOrder,
		VariableStructure: 0x81,
		Cause:             causeDisturbanceOrder,
		CommonAddr:        m.address,
		FunctionType:      m.functionType,
		InformationNumber: 0,
	}
	header := asdu.EncodeHeader(id)
	payload := append(header[:], o.Code, o.TOV, byte(o.FAN), byte(o.FAN>>8), o.ACC)
	return m.link.SendUserData(payload, true)
}

// NextASDU polls class 1 or class 2 data and returns the raw ASDU
// bytes of whatever the equipment had pending, or nil if there was
// nothing to report.
func (m *Master) NextASDU(class int) ([]byte, error) {
	switch class {
	case 1:
		return m.link.RequestClass1()
	case 2:
		return m.link.RequestClass2()
	default:
		return nil, fmt.Errorf("master: invalid poll class %d", class)
	}
}

// Poll requests data using the default class configured via
// WithPollClass (class 1 unless overridden). A caller driving a
// disturbance.Assembler typically calls Poll in a loop and feeds
// non-empty results to Assembler.Feed.
func (m *Master) Poll() ([]byte, error) {
	return m.NextASDU(m.pollClass)
}

// StationStart runs the full bring-up sequence: init, a time sync to
// the current time, a general interrogation scanned with the link
// address, and an LED-reset command, exactly as original_source's
// StationStart.
func (m *Master) StationStart() error {
	if err := m.StationInit(); err != nil {
		return err
	}
	if err := m.TimeSync(time.Now()); err != nil {
		return err
	}
	if err := m.GeneralInterrogation(m.address); err != nil {
		return err
	}
	return m.CommandTransmission(asdu.CommandLedReset, asdu.DCOOn, 10)
}

// BlockingStationStart retries StationStart until it succeeds or ctx is
// done, replacing original_source's BlockingStationStart's unconditional
// `while(!StationStart())` spin with a cancellable wait, per spec §5/§9's
// concurrency redesign — a library should never spin forever with no
// way out.
func (m *Master) BlockingStationStart(ctx context.Context) error {
	for {
		err := m.StationStart()
		if err == nil {
			return nil
		}
		m.log.Warn("master: station start failed, retrying: %v", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if errors.Is(err, link.ErrChannelClosed) {
			return err
		}
	}
}

// Cause-of-transmission values used by the messages this package
// constructs. See companion standard 103, subclass 7.2.3.
const (
	causeSpontaneous      causeOfTransmission = 8
	causeActivation       causeOfTransmission = 9
	causeCommand          causeOfTransmission = 20
	causeDisturbanceOrder causeOfTransmission = 31
)

type causeOfTransmission = byte
