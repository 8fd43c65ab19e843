// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/marrasen/go-iec103/asdu"
	"github.com/marrasen/go-iec103/comtrade"
)

// channelConfig is the YAML shape of one COMTRADE channel slot. Source
// is a pointer so an absent "source" key (an unused slot) unmarshals
// to nil, matching comtrade.AnalogChannel's own nil-means-unused
// convention.
type channelConfig struct {
	ID               string  `yaml:"id"`
	Phase            string  `yaml:"phase"`
	CircuitComponent string  `yaml:"circuit_component"`
	Unit             string  `yaml:"unit,omitempty"`
	Source           *uint8  `yaml:"source,omitempty"`
	NormalState      string  `yaml:"normal_state,omitempty"`
	FunctionType     *byte   `yaml:"function_type,omitempty"`
	InformationNum   *byte   `yaml:"information_number,omitempty"`
}

// recordConfig describes how to lay out a station's disturbance records
// as COMTRADE channels, the part of the export Save cannot infer from
// the ASDU stream alone.
type recordConfig struct {
	Station       string          `yaml:"station"`
	LineFrequency string          `yaml:"line_frequency"`
	Analog        []channelConfig `yaml:"analog"`
	Digital       []channelConfig `yaml:"digital"`
}

// channelSearchLocations mirrors the teacher's tocalls.yaml lookup: try
// the working directory, then a couple of conventional install paths,
// so the binary runs from a source checkout or an installed package
// without needing an absolute --config flag.
var channelSearchLocations = []string{
	"channels.yaml",
	"/etc/iec103master/channels.yaml",
	"/usr/local/share/iec103master/channels.yaml",
}

func loadRecordConfig(explicit string) (recordConfig, error) {
	locations := channelSearchLocations
	if explicit != "" {
		locations = []string{explicit}
	}

	var data []byte
	var err error
	var used string
	for _, loc := range locations {
		data, err = os.ReadFile(loc)
		if err == nil {
			used = loc
			break
		}
	}
	if used == "" {
		return recordConfig{}, fmt.Errorf("iec103master: no channel config found in %v: %w", locations, err)
	}

	var cfg recordConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return recordConfig{}, fmt.Errorf("iec103master: parsing %s: %w", used, err)
	}
	return cfg, nil
}

func (c channelConfig) analog() comtrade.AnalogChannel {
	return comtrade.AnalogChannel{
		ChannelID:        c.ID,
		Phase:            c.Phase,
		CircuitComponent: c.CircuitComponent,
		Unit:             c.Unit,
		Source:           c.Source,
	}
}

func (c channelConfig) digital() comtrade.DigitalChannel {
	var ft asdu.FunctionType
	if c.FunctionType != nil {
		ft = asdu.FunctionType(*c.FunctionType)
	}
	var inum byte
	if c.InformationNum != nil {
		inum = *c.InformationNum
	}
	return comtrade.DigitalChannel{
		ChannelID:         c.ID,
		Phase:             c.Phase,
		CircuitComponent:  c.CircuitComponent,
		NormalState:       c.NormalState,
		FunctionType:      ft,
		InformationNumber: inum,
	}
}

func (rc recordConfig) analogChannels() []comtrade.AnalogChannel {
	out := make([]comtrade.AnalogChannel, len(rc.Analog))
	for i, c := range rc.Analog {
		out[i] = c.analog()
	}
	return out
}

func (rc recordConfig) digitalChannels() []comtrade.DigitalChannel {
	out := make([]comtrade.DigitalChannel, len(rc.Digital))
	for i, c := range rc.Digital {
		out[i] = c.digital()
	}
	return out
}
