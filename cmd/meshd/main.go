package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aerodesic-io/meshnet/config"
	gonetlog "github.com/aerodesic-io/meshnet/log"
	"github.com/aerodesic-io/meshnet/mesh"
	"github.com/aerodesic-io/meshnet/metrics"
	"github.com/aerodesic-io/meshnet/radio"
	"github.com/aerodesic-io/meshnet/serial"
	"github.com/aerodesic-io/meshnet/wire"
)

/*

  Examples:

  Run a single node, address 1, not a gateway, logging to stderr:

  # go run ./cmd/meshd -addr 1

  Run a gateway node with promiscuous capture and a console bridge on /dev/ttyUSB0:

  # go run ./cmd/meshd -addr 1 -gateway -promiscuous -device /dev/ttyUSB0

*/

func main() {
	addr, gateway, promiscuous, debug, device, baud, configPath, metricsAddr := parseCommandLineArguments()

	zlog := newZapLogger(debug)
	defer zlog.Sync()
	notifier := gonetlog.NewZap(zlog)

	reg := prometheus.NewRegistry()
	prom := metrics.NewProm(reg)

	store := loadConfigStore(configPath)

	r := &loopbackRadio{}
	e := mesh.New(wire.Address(addr), r, gateway,
		mesh.WithLogger(notifier),
		mesh.WithMetrics(prom))
	r.engine = e
	e.SetPromiscuous(promiscuous)
	e.SetDebug(debug)
	e.Start()
	defer e.Stop()

	if metricsAddr != "" {
		go serveMetrics(metricsAddr, reg, zlog)
	}

	var bridge io.ReadWriteCloser
	if device != "" {
		f, err := serial.OpenRaw(device, baud)
		if err != nil {
			log.Fatal(err)
		}
		bridge = f
		defer bridge.Close()
		go pumpSerialUplink(e, bridge, zlog)
	}

	go func() {
		for {
			rcv, ok := e.Receive()
			if !ok {
				return
			}
			zlog.Info("delivered", zap.String("packet", rcv.Packet.String()), zap.Bool("promiscuous", rcv.Promiscuous))
			if bridge != nil {
				writeSerialDownlink(bridge, rcv, zlog)
			}
		}
	}()

	if err := store.Save(configSaveWriter(configPath), false); err != nil {
		zlog.Warn("config save failed", zap.Error(err))
	}

	select {}
}

// loopbackRadio stands in for the out-of-scope CSS radio driver: it
// immediately loops every transmitted packet back into the engine's
// receive path, as if it had been overheard by this node itself, and then
// reports the frame complete through OnTransmitComplete, transmitting the
// next queued frame if there is one. It exists purely to exercise
// Start/Send/OnReceive end to end without real hardware; a production
// build replaces it with a driver that programs the transceiver and wires
// its IRQ into OnReceive/OnTransmitComplete.
type loopbackRadio struct {
	engine *mesh.Engine
}

func (r *loopbackRadio) TransmitPacket(buf []byte) {
	cp := make([]byte, len(buf))
	copy(cp, buf)
	go func() {
		r.engine.OnReceive(cp, true, -50)
		if next := r.engine.OnTransmitComplete(); next != nil {
			r.TransmitPacket(next)
		}
	}()
}

func newZapLogger(debug bool) *zap.Logger {
	if debug {
		l, err := zap.NewDevelopment()
		if err != nil {
			log.Fatal(err)
		}
		return l
	}
	l, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	return l
}

func serveMetrics(addr string, reg *prometheus.Registry, zlog *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	zlog.Info("metrics listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		zlog.Fatal("metrics server", zap.Error(err))
	}
}

func defaultConfig() map[string]any {
	return map[string]any{
		"node": map[string]any{
			"address": float64(0),
			"gateway": false,
		},
		"radio": map[string]any{
			"channel": float64(0),
		},
	}
}

const configVersion = 1

func loadConfigStore(path string) *config.Store {
	if path == "" {
		return config.New(defaultConfig(), configVersion)
	}
	f, err := os.Open(path)
	if err != nil {
		return config.New(defaultConfig(), configVersion)
	}
	defer f.Close()
	return config.Load(f, defaultConfig(), configVersion)
}

func configSaveWriter(path string) io.Writer {
	if path == "" {
		return io.Discard
	}
	f, err := os.Create(path)
	if err != nil {
		return io.Discard
	}
	return f
}

// pumpSerialUplink reads console-bridge lines from bridge and hands each
// decoded frame's payload to the engine as a received mesh packet, the way
// a host-side bridge process relays what it hears on its own link.
func pumpSerialUplink(e *mesh.Engine, bridge io.Reader, zlog *zap.Logger) {
	scanner := bufio.NewScanner(bridge)
	for scanner.Scan() {
		frame, err := serial.Decode(scanner.Bytes())
		if err != nil {
			zlog.Warn("serial decode", zap.Error(err))
			continue
		}
		e.OnReceive(frame.Payload, true, frame.RSSI)
	}
}

// writeSerialDownlink relays one packet delivered to the application out
// over the console bridge, framed as a serial.Frame.
func writeSerialDownlink(bridge io.Writer, rcv mesh.Received, zlog *zap.Logger) {
	f := serial.Frame{
		Source:   rcv.Packet.Source(),
		Protocol: rcv.Packet.Protocol(),
		Payload:  rcv.Packet.Bytes(),
		RSSI:     rcv.RSSI,
	}
	if _, err := bridge.Write(serial.Encode(f)); err != nil {
		zlog.Warn("serial write", zap.Error(err))
	}
}

func parseCommandLineArguments() (addr int, gateway, promiscuous, debug bool, device string, baud int, configPath, metricsAddr string) {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -addr <node-address> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	addrFlag := flag.String("addr", "", "this node's mesh address (1-65534)")
	gatewayFlag := flag.Bool("gateway", false, "advertise gateway connectivity and run the announce worker")
	promiscuousFlag := flag.Bool("promiscuous", false, "deliver every overheard frame to the application")
	debugFlag := flag.Bool("debug", false, "verbose logging")
	deviceFlag := flag.String("device", "", "console-bridge serial device (e.g. /dev/ttyUSB0); disabled if empty")
	baudFlag := flag.Int("baud", 115200, "serial baud rate")
	configFlag := flag.String("config", "", "path to persisted config JSON; in-memory defaults if empty")
	metricsFlag := flag.String("metrics", "", "address to serve /metrics on (e.g. :9090); disabled if empty")

	flag.Parse()

	if *addrFlag == "" {
		log.Fatal("-addr is required")
	}
	n, err := strconv.Atoi(*addrFlag)
	if err != nil || n <= 0 || n >= int(wire.BroadcastAddress) {
		log.Fatalf("invalid -addr %q: must be in 1-%d", *addrFlag, wire.BroadcastAddress-1)
	}

	return n, *gatewayFlag, *promiscuousFlag, *debugFlag, *deviceFlag, *baudFlag, *configFlag, *metricsFlag
}

var _ radio.Radio = (*loopbackRadio)(nil)
