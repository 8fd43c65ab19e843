// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

// Command iec103master dials a serial-to-TCP gateway speaking IEC
// 60870-5-103 over FT1.2, brings up the station, and polls it for
// disturbance recordings, exporting each completed one as a COMTRADE
// 1999 file pair. This is the only package in the module allowed to
// import net or pflag — see the teacher's own cs104_client_general
// example for the dial/poll/signal shape this follows.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/pflag"

	"github.com/marrasen/go-iec103/asdu"
	"github.com/marrasen/go-iec103/clog"
	"github.com/marrasen/go-iec103/comtrade"
	"github.com/marrasen/go-iec103/disturbance"
	"github.com/marrasen/go-iec103/master"
)

func main() {
	var gateway = pflag.StringP("gateway", "g", "localhost:2404", "Serial-to-TCP gateway address (host:port).")
	var linkAddress = pflag.Uint8P("link-address", "a", 1, "Link-layer address of the protection equipment.")
	var logLevel = pflag.StringP("log-level", "l", "warn", "Log level: off, critical, error, warn, debug.")
	var output = pflag.StringP("output", "o", "disturbance", "Path stem for exported COMTRADE files; a fault number is appended.")
	var config = pflag.StringP("config", "c", "", "Path to the COMTRADE channel-layout YAML config. Searched for in the working directory and conventional install paths when unset.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "iec103master - an IEC 60870-5-103 master polling protection equipment for disturbance recordings.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: iec103master [options]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	level, err := parseLogLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		pflag.Usage()
		os.Exit(1)
	}

	recCfg, err := loadRecordConfig(*config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := clog.NewLogger("iec103master")
	log.SetLogLevel(level)

	conn, err := net.DialTimeout("tcp", *gateway, 10*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "iec103master: dial %s: %v\n", *gateway, err)
		os.Exit(1)
	}
	defer conn.Close()

	m := master.New(conn, *linkAddress, master.WithLogger(log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	if err := m.BlockingStationStart(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "iec103master: station start: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("station %q online (function type %s)\n", m.StationName(), m.FunctionType())

	if err := run(ctx, m, recCfg, *output, *linkAddress); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "iec103master: %v\n", err)
		os.Exit(1)
	}
}

func parseLogLevel(s string) (clog.Level, error) {
	switch s {
	case "off":
		return clog.LevelOff, nil
	case "critical":
		return clog.LevelCritical, nil
	case "error":
		return clog.LevelError, nil
	case "warn":
		return clog.LevelWarn, nil
	case "debug":
		return clog.LevelDebug, nil
	default:
		return 0, fmt.Errorf("iec103master: unknown log level %q", s)
	}
}

// run polls class 1 and 2 data in turn, feeding every ASDU to asm and
// exporting a COMTRADE file pair each time a recording seals.
func run(ctx context.Context, m *master.Master, recCfg recordConfig, outputStem string, address uint8) error {
	asm := disturbance.NewAssembler()
	analog := recCfg.analogChannels()
	digital := recCfg.digitalChannels()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		for _, class := range [2]int{1, 2} {
			payload, err := m.NextASDU(class)
			if err != nil {
				return fmt.Errorf("polling class %d: %w", class, err)
			}
			if len(payload) == 0 {
				continue
			}

			id, err := asdu.DecodeHeader(payload)
			if err != nil {
				fmt.Fprintf(os.Stderr, "iec103master: dropping malformed ASDU: %v\n", err)
				continue
			}

			progress, order, err := asm.Feed(id, payload[asdu.HeaderSize:])
			if err != nil {
				fmt.Fprintf(os.Stderr, "iec103master: disturbance assembler: %v\n", err)
				continue
			}
			if order != nil {
				if err := m.SendDisturbanceOrder(*order); err != nil {
					return fmt.Errorf("sending disturbance order: %w", err)
				}
			}
			if progress == disturbance.ProgressSealed {
				rec := asm.Record()
				path := fmt.Sprintf("%s-%d", outputStem, rec.FaultNumber)
				if err := comtrade.Save(path, recCfg.Station, uint16(address), rec, analog, digital, recCfg.LineFrequency); err != nil {
					fmt.Fprintf(os.Stderr, "iec103master: exporting %s: %v\n", path, err)
					continue
				}
				fmt.Printf("exported disturbance record %d to %s.cfg/.dat\n", rec.FaultNumber, path)
			}
		}
	}
}
