// modbuspoll reads a CSV point table over Modbus RTU at a fixed interval
// and logs the sampled values.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	modbus "github.com/benfoxall/modbus-webserial"
)

func main() {
	var (
		configPath = flag.String("config", "modbuspoll.toml", "path to the TOML configuration file")
		listPorts  = flag.Bool("list", false, "list detected serial devices and exit")
		verbose    = flag.Bool("v", false, "enable frame-level tracing")
	)
	flag.Parse()

	if *listPorts {
		ports, err := modbus.DiscoverPorts(nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "modbuspoll: %v\n", err)
			os.Exit(1)
		}
		for _, port := range ports {
			fmt.Println(port)
		}
		return
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := modbus.NewConsoleLogger(level, "modbuspoll")
	log := logger.Zerolog()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("configuration")
	}

	client, err := modbus.NewClient(cfg.Port)
	if err != nil {
		log.Fatal().Err(err).Msg("connect")
	}
	defer client.Close()
	if *verbose {
		client.SetLogger(logger)
	}

	poller := modbus.NewPoller(client, cfg.Points, cfg.Interval)
	poller.SetOnData(func(samples []modbus.Sample) {
		for _, s := range samples {
			event := log.Info().Str("tag", s.Point.Tag)
			if s.Bits != nil {
				event = event.Bools("bits", s.Bits)
			} else {
				values := make([]uint32, len(s.Registers))
				for i, r := range s.Registers {
					values[i] = uint32(r)
				}
				event = event.Uints32("registers", values)
			}
			event.Msg("sample")
		}
	})
	poller.SetOnError(func(point modbus.Point, err error) {
		log.Error().Err(err).Str("tag", point.Tag).Msg("read failed")
	})

	log.Info().Int("points", len(cfg.Points)).Dur("interval", cfg.Interval).Msg("polling")
	poller.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	poller.Stop()
}
