// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package link

import (
	"fmt"

	"github.com/marrasen/go-iec103/clog"
	"github.com/marrasen/go-iec103/ft12"
)

// Option configures a Manager at construction time. See companion
// standard 101, subclass 5; grounded on the teacher's
// cs104/clientOption.go functional-options shape.
type Option func(*Manager)

// WithLogger installs lg as the Manager's logger. The zero Manager logs
// nothing (Clog's default level is Off).
func WithLogger(lg clog.Clog) Option {
	return func(m *Manager) { m.log = lg }
}

// Manager drives the primary-station link layer dialog described in
// companion standard 101, subclass 5.2: reset, confirmed/unconfirmed
// user data, status polling, and class 1/2 data requests. It owns the
// frame-count bit and the outbound address and is not safe for
// concurrent use — see the package doc.
type Manager struct {
	ch      ByteChannel
	address byte
	fcb     bool
	log     clog.Clog
}

// NewManager returns a Manager addressing the station at address over
// ch, with the frame count bit initialized to 1 (matching the state
// ResetRemoteLink leaves it in).
func NewManager(ch ByteChannel, address byte, opts ...Option) *Manager {
	m := &Manager{ch: ch, address: address, fcb: true}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetAddress changes the link address used for subsequent operations.
func (m *Manager) SetAddress(addr byte) { m.address = addr }

// ResetRemoteLink sends function 0 (reset remote link) and forces the
// frame count bit back to 1 per spec §4.C's FCB discipline.
func (m *Manager) ResetRemoteLink() error {
	control := ft12.PackControl(true, false, false, ft12.FuncResetRemoteLink)
	_, err := m.dialFixed(control)
	if err != nil {
		return err
	}
	m.fcb = true
	return nil
}

// SendUserData transmits data as a variable frame. When confirmed is
// true, function 3 is used, a reply is awaited and validated, and the
// frame count bit toggles on success. When confirmed is false, function
// 4 is used and the call returns as soon as the write completes — per
// spec §4.C, function 4 is fire-and-forget and does not toggle FCB.
func (m *Manager) SendUserData(data []byte, confirmed bool) error {
	if !confirmed {
		control := ft12.PackControl(true, false, false, ft12.FuncUserDataNoReply)
		raw := ft12.Encode(ft12.Frame{Kind: ft12.KindVariable, Control: control, Address: m.address, UserData: data})
		if _, err := m.ch.Write(raw); err != nil {
			return &TransportError{Op: "write", Err: err}
		}
		return nil
	}

	control := ft12.PackControl(true, m.fcb, true, ft12.FuncUserDataConfirm)
	out := ft12.Frame{Kind: ft12.KindVariable, Control: control, Address: m.address, UserData: data}
	if _, err := m.sendReceiveAndCheck(out); err != nil {
		return err
	}
	m.fcb = !m.fcb
	return nil
}

// StatusLink sends function 9 (request link status), validates the
// reply, and toggles the frame count bit on success. The reply's
// contents are not returned.
func (m *Manager) StatusLink() error {
	control := ft12.PackControl(true, m.fcb, true, ft12.FuncRequestStatus)
	_, err := m.dialFixed(control)
	if err != nil {
		return err
	}
	m.fcb = !m.fcb
	return nil
}

// RequestClass1 polls for class 1 (high-priority) data. It returns the
// ASDU bytes of a variable-frame reply, or nil if the secondary station
// answered with ack-no-data (function 9) or a single-char ack.
func (m *Manager) RequestClass1() ([]byte, error) {
	return m.requestClass(ft12.FuncRequestClass1)
}

// RequestClass2 polls for class 2 (low-priority) data, symmetric with
// RequestClass1.
func (m *Manager) RequestClass2() ([]byte, error) {
	return m.requestClass(ft12.FuncRequestClass2)
}

func (m *Manager) requestClass(function byte) ([]byte, error) {
	control := ft12.PackControl(true, m.fcb, true, function)
	reply, err := m.dialFixed(control)
	if err != nil {
		return nil, err
	}
	m.fcb = !m.fcb
	if reply.Kind == ft12.KindVariable {
		return reply.UserData, nil
	}
	return nil, nil
}

// dialFixed sends a fixed frame carrying control and returns whatever
// reply sendReceiveAndCheck validates as matching. NACKs are not
// surfaced as errors here: checkReply already treats them as "retry",
// per original_source/Open103/IEC87052Manager.h CheckControlReturnFrame.
func (m *Manager) dialFixed(control byte) (ft12.Frame, error) {
	out := ft12.Frame{Kind: ft12.KindFixed, Control: control, Address: m.address}
	return m.sendReceiveAndCheck(out)
}

// sendReceiveAndCheck writes out, reads one reply frame, and validates
// it. On address mismatch or NACK it re-sends the identical outbound
// frame and retries, per spec §4.C's protocol invariant, until a
// matching reply arrives or the channel yields zero bytes.
func (m *Manager) sendReceiveAndCheck(out ft12.Frame) (ft12.Frame, error) {
	raw := ft12.Encode(out)
	for {
		if _, err := m.ch.Write(raw); err != nil {
			return ft12.Frame{}, &TransportError{Op: "write", Err: err}
		}
		reply, err := readFrame(m.ch)
		if err != nil {
			return ft12.Frame{}, err
		}
		ok, err := m.checkReply(out, reply)
		if err != nil {
			return ft12.Frame{}, err
		}
		if ok {
			return reply, nil
		}
		m.log.Debug("link: retrying %s after mismatched reply", fmt.Sprintf("function %d", ft12.Function(out.Control)))
	}
}

// checkReply validates reply against the sent frame out, per spec
// §4.C's reply validation rules. A false, nil return means "retry the
// same outbound frame"; a non-nil error is terminal.
func (m *Manager) checkReply(out, reply ft12.Frame) (bool, error) {
	if reply.Kind == ft12.KindAck {
		return true, nil
	}
	if reply.Address != out.Address {
		return false, nil
	}
	if reply.Control&ft12.PRM != 0 {
		return false, nil
	}
	if reply.Control&ft12.DFC != 0 {
		return false, ErrOverflow
	}

	startFunc := ft12.Function(out.Control)
	if startFunc == ft12.FuncResetRemoteLink || startFunc == ft12.FuncUserDataConfirm {
		replyFunc := ft12.Function(reply.Control)
		if replyFunc == ft12.FuncNack {
			return false, nil
		}
	}
	return true, nil
}

// readFrame reads exactly one FT1.2 frame from ch, determining its
// length from the start byte and, for variable frames, the length
// field — since ByteChannel exposes only a raw stream, not framing.
func readFrame(ch ByteChannel) (ft12.Frame, error) {
	head, err := readFull(ch, 1)
	if err != nil {
		return ft12.Frame{}, err
	}
	switch head[0] {
	case ft12.SingleAck:
		return ft12.Frame{Kind: ft12.KindAck}, nil
	case ft12.StartFixed:
		rest, err := readFull(ch, 4)
		if err != nil {
			return ft12.Frame{}, err
		}
		return ft12.Decode(append(head, rest...))
	case ft12.StartVariable:
		lens, err := readFull(ch, 2)
		if err != nil {
			return ft12.Frame{}, err
		}
		l := int(lens[0])
		rest, err := readFull(ch, l+3) // second start + (control+address+userdata) + checksum + end
		if err != nil {
			return ft12.Frame{}, err
		}
		full := append(head, lens...)
		full = append(full, rest...)
		return ft12.Decode(full)
	default:
		return ft12.Frame{}, &ft12.InvalidFrameError{Category: ft12.CategoryBadStart}
	}
}
