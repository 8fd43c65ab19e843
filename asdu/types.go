// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package asdu

import "fmt"

// TypeID identifies the ASDU's information content. Values 1..31 are
// standardized by companion standard 103; 32..255 are private range.
type TypeID byte

// Standardized type identifications used by this implementation. See
// companion standard 103, subclass 7.2.1 and
// original_source/Open103/IEC8705103Manager.h.
const (
	TypeTimeTaggedMessage         TypeID = 1
	TypeIdentification            TypeID = 5
	TypeTimeSync                  TypeID = 6
	TypeGeneralInterrogation      TypeID = 7
	TypeGeneralCommand            TypeID = 20
	TypeDisturbanceRequest        TypeID = 23
	TypeDisturbanceOrder          TypeID = 24
	TypeDisturbanceHeader         TypeID = 26
	TypeDisturbanceChannel        TypeID = 27
	TypeDisturbanceTagsAnnounce   TypeID = 28 // channel list complete, tags ready to request
	TypeDisturbanceTagValues      TypeID = 29 // one batch of (function_type, information_number, DIP) triples
	TypeDisturbanceChannelSamples TypeID = 30 // one batch of signed 16-bit samples for a channel
	TypeDisturbanceEnd            TypeID = 31
)

func (t TypeID) String() string {
	switch t {
	case TypeTimeTaggedMessage:
		return "time-tagged message"
	case TypeIdentification:
		return "identification"
	case TypeTimeSync:
		return "time sync"
	case TypeGeneralInterrogation:
		return "general interrogation"
	case TypeGeneralCommand:
		return "general command"
	case TypeDisturbanceRequest:
		return "disturbance request"
	case TypeDisturbanceOrder:
		return "disturbance order"
	case TypeDisturbanceHeader:
		return "disturbance header"
	case TypeDisturbanceChannel:
		return "disturbance channel"
	case TypeDisturbanceTagsAnnounce:
		return "disturbance tags announce"
	case TypeDisturbanceTagValues:
		return "disturbance tag values"
	case TypeDisturbanceChannelSamples:
		return "disturbance channel samples"
	case TypeDisturbanceEnd:
		return "disturbance end"
	default:
		return fmt.Sprintf("type(%d)", byte(t))
	}
}

// FunctionType is the protected-equipment category negotiated during
// station init (ASDU 5's identification payload) and carried in every
// ASDU's IFI.
type FunctionType byte

const (
	FunctionDistance            FunctionType = 128
	FunctionOvercurrent         FunctionType = 160
	FunctionTransformerDiff     FunctionType = 176
	FunctionLineDiff            FunctionType = 192
	FunctionGeneric             FunctionType = 254
	FunctionGlobal              FunctionType = 255
)

func (f FunctionType) String() string {
	switch f {
	case FunctionDistance:
		return "distance"
	case FunctionOvercurrent:
		return "overcurrent"
	case FunctionTransformerDiff:
		return "transformer-differential"
	case FunctionLineDiff:
		return "line-differential"
	case FunctionGeneric:
		return "generic"
	case FunctionGlobal:
		return "global"
	default:
		return fmt.Sprintf("function(%d)", byte(f))
	}
}

// Command names a protection command sent via type 20 (general
// command). See original_source/Open103/IEC8705103Manager.h, enum
// Command.
type Command byte

const (
	CommandAutoReclocerOnOff    Command = 16
	CommandTeleprotectionOnOff  Command = 17
	CommandProtectionOnOff      Command = 18
	CommandLedReset             Command = 19
	CommandActivateChar1        Command = 23
	CommandActivateChar2        Command = 24
	CommandActivateChar3        Command = 25
	CommandActivateChar4        Command = 26
)

func (c Command) String() string {
	switch c {
	case CommandAutoReclocerOnOff:
		return "auto-recloser on/off"
	case CommandTeleprotectionOnOff:
		return "teleprotection on/off"
	case CommandProtectionOnOff:
		return "protection on/off"
	case CommandLedReset:
		return "led reset"
	case CommandActivateChar1:
		return "activate characteristic 1"
	case CommandActivateChar2:
		return "activate characteristic 2"
	case CommandActivateChar3:
		return "activate characteristic 3"
	case CommandActivateChar4:
		return "activate characteristic 4"
	default:
		return fmt.Sprintf("command(%d)", byte(c))
	}
}

// DCO is the double command output carried alongside a Command.
type DCO byte

const (
	DCOOff DCO = 1
	DCOOn  DCO = 2
)

// CommandAllowed reports whether function negotiates permission to send
// cmd, per spec §4.E's function-type/command permission table.
func CommandAllowed(function FunctionType, cmd Command) bool {
	switch function {
	case FunctionDistance:
		return cmd >= 16 && cmd <= 26
	case FunctionOvercurrent:
		return cmd >= 16 && cmd <= 19
	case FunctionLineDiff:
		return cmd == 16 || cmd == 18 || cmd == 19
	case FunctionTransformerDiff:
		return cmd == 18 || cmd == 19
	default:
		return false
	}
}
