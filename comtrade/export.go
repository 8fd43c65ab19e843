// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package comtrade

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/marrasen/go-iec103/disturbance"
)

// Save writes path+".cfg" and path+".dat" for rec. analog and digital
// list the channel slots in output order; a slot with a nil Source (or
// one naming a channel rec never received) is written as zero rather
// than omitted, so every row of the .dat file has the same column
// count as the .cfg declares — original_source's sample loop instead
// walks channel codes 0..254 and skips unmapped slots entirely, which
// this package does not reproduce since it would let column count
// drift from the declared channel list.
func Save(path, station string, stationNumber uint16, rec disturbance.Record, analog []AnalogChannel, digital []DigitalChannel, lineFrequency string) error {
	if err := writeConfig(path+".cfg", station, stationNumber, rec, analog, digital, lineFrequency); err != nil {
		return err
	}
	return writeData(path+".dat", rec, analog, digital)
}

func writeConfig(path, station string, stationNumber uint16, rec disturbance.Record, analog []AnalogChannel, digital []DigitalChannel, lineFrequency string) error {
	f, err := os.Create(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	fmt.Fprintf(w, "%s,%d,1999\r\n", station, stationNumber)
	fmt.Fprintf(w, "%d,%dA,%dD\r\n", len(analog)+len(digital), len(analog), len(digital))

	for i, ac := range analog {
		ch, _ := resolveChannel(rec, ac)
		min, max := sampleRange(ch.Samples)
		a := ch.RFA / 32768
		fmt.Fprintf(w, "%d,%s,%s,%s,%s,%g,0,0,%d,%d,%g,%g,S\r\n",
			i+1, ac.ChannelID, ac.Phase, ac.CircuitComponent, ac.Unit, a, min, max, ch.RPV, ch.RSV)
	}

	for i, dc := range digital {
		fmt.Fprintf(w, "%d,%s,%s,%s,%s\r\n", i, dc.ChannelID, dc.Phase, dc.CircuitComponent, dc.NormalState)
	}

	fmt.Fprintf(w, "%s\r\n", lineFrequency)
	fmt.Fprintf(w, "1\r\n")

	sampleRate := 1e6 / float64(rec.SamplingIntervalUS)
	fmt.Fprintf(w, "%g,%d\r\n", sampleRate, rec.ChannelElements)

	fmt.Fprintf(w, "%s\r\n", formatTimestamp(rec.StartTime))
	fmt.Fprintf(w, "%s\r\n", formatTimestamp(rec.EventTime))

	fmt.Fprintf(w, "ASCII\r\n1.0")

	if err := w.Flush(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

func writeData(path string, rec disturbance.Record, analog []AnalogChannel, digital []DigitalChannel) error {
	f, err := os.Create(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	current := make([]int, len(digital))
	applyTagBlock := func(tb disturbance.TagBlock) {
		for _, tag := range tb.Tags {
			for k, dc := range digital {
				if dc.FunctionType == tag.FunctionType && dc.InformationNumber == tag.InformationNumber {
					current[k] = tag.State()
				}
			}
		}
	}
	// TAP==0 seeds the digital channels' initial state, applied once
	// before the first row rather than re-checked every iteration.
	for _, tb := range rec.TagBlocks {
		if tb.TAP == 0 {
			applyTagBlock(tb)
		}
	}

	for i := 0; i < int(rec.ChannelElements); i++ {
		fmt.Fprintf(w, "%d,%d", i+1, int(rec.SamplingIntervalUS)*i)

		for _, ac := range analog {
			ch, ok := resolveChannel(rec, ac)
			var v int16
			if ok && i < len(ch.Samples) {
				v = ch.Samples[i]
			}
			fmt.Fprintf(w, ",%d", v)
		}

		if i != 0 {
			for _, tb := range rec.TagBlocks {
				if int(tb.TAP) == i {
					applyTagBlock(tb)
				}
			}
		}

		for _, v := range current {
			fmt.Fprintf(w, ",%d", v)
		}
		fmt.Fprintf(w, "\r\n")
	}

	if err := w.Flush(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

func resolveChannel(rec disturbance.Record, ac AnalogChannel) (disturbance.Channel, bool) {
	if ac.Source == nil {
		return disturbance.Channel{}, false
	}
	ch, ok := rec.Channels[*ac.Source]
	if !ok {
		return disturbance.Channel{}, false
	}
	return *ch, true
}

func sampleRange(samples []int16) (min, max int16) {
	if len(samples) == 0 {
		return 0, 0
	}
	min, max = samples[0], samples[0]
	for _, s := range samples[1:] {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	return min, max
}

func formatTimestamp(t time.Time) string {
	return fmt.Sprintf("%02d/%02d/%04d,%02d:%02d:%02d.%03d",
		t.Day(), int(t.Month()), t.Year(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/int(time.Millisecond))
}
