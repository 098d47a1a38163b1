package main

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	modbus "github.com/benfoxall/modbus-webserial"
)

type fileConfig struct {
	Port struct {
		Address      string `toml:"address"`
		BaudRate     int    `toml:"baud_rate"`
		DataBits     int    `toml:"data_bits"`
		StopBits     int    `toml:"stop_bits"`
		Parity       string `toml:"parity"`
		TimeoutMS    int64  `toml:"timeout_ms"`
		USBVendorID  string `toml:"usb_vendor_id"`
		USBProductID string `toml:"usb_product_id"`
	} `toml:"port"`
	Poll struct {
		Points     string `toml:"points"`
		IntervalMS int64  `toml:"interval_ms"`
	} `toml:"poll"`
}

type pollConfig struct {
	Port     modbus.Config
	Points   []modbus.Point
	Interval time.Duration
}

func loadConfig(path string) (pollConfig, error) {
	var raw fileConfig
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return pollConfig{}, fmt.Errorf("load config: %w", err)
	}

	cfg := pollConfig{
		Port: modbus.Config{
			Address:  raw.Port.Address,
			BaudRate: raw.Port.BaudRate,
			DataBits: raw.Port.DataBits,
			StopBits: raw.Port.StopBits,
			Parity:   raw.Port.Parity,
		},
		Interval: time.Second,
	}
	if raw.Port.TimeoutMS > 0 {
		cfg.Port.Timeout = time.Duration(raw.Port.TimeoutMS) * time.Millisecond
	}
	if raw.Port.USBVendorID != "" {
		cfg.Port.Filters = []modbus.PortFilter{{
			USBVendorID:  raw.Port.USBVendorID,
			USBProductID: raw.Port.USBProductID,
		}}
	}
	if raw.Poll.IntervalMS > 0 {
		cfg.Interval = time.Duration(raw.Poll.IntervalMS) * time.Millisecond
	}

	if raw.Poll.Points == "" {
		return pollConfig{}, fmt.Errorf("config: poll.points is required")
	}
	f, err := os.Open(raw.Poll.Points)
	if err != nil {
		return pollConfig{}, fmt.Errorf("open point table: %w", err)
	}
	defer f.Close()
	cfg.Points, err = modbus.ParsePointsCSV(f)
	if err != nil {
		return pollConfig{}, fmt.Errorf("parse point table %s: %w", raw.Poll.Points, err)
	}
	return cfg, nil
}
