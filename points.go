// Copyright (C) 2024  wwhai
//
// This program is free software; you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; either version 2 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License along
// with this program; if not, see <https://www.gnu.org/licenses/>.

package modbus

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Point describes one polled data point: which slave to ask, with which
// read function, and which address range.
type Point struct {
	Tag      string
	SlaveID  uint8
	Function uint8
	Address  uint16
	Quantity uint16
}

// pointCSVFields are the required columns of a point table.
var pointCSVFields = []string{"tag", "slaveId", "function", "address", "quantity"}

// ParsePointsCSV parses a poll table from CSV. The first row is a header
// naming at least the required columns, in any order. Tags must be unique;
// function must be one of the four read operations.
func ParsePointsCSV(reader io.Reader) ([]Point, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty CSV file")
	}

	headerMap := make(map[string]int)
	for i, h := range records[0] {
		headerMap[strings.TrimSpace(h)] = i
	}
	for _, field := range pointCSVFields {
		if _, exists := headerMap[field]; !exists {
			return nil, fmt.Errorf("missing required field in CSV header: %s", field)
		}
	}

	seen := make(map[string]bool)
	points := make([]Point, 0, len(records)-1)
	for row, record := range records[1:] {
		point, err := parsePointRecord(record, headerMap)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row+2, err)
		}
		if seen[point.Tag] {
			return nil, fmt.Errorf("row %d: duplicate tag: %s", row+2, point.Tag)
		}
		seen[point.Tag] = true
		points = append(points, point)
	}
	return points, nil
}

func parsePointRecord(record []string, headerMap map[string]int) (Point, error) {
	field := func(name string) string {
		i := headerMap[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var p Point
	p.Tag = field("tag")
	if p.Tag == "" {
		return p, fmt.Errorf("empty tag")
	}

	slaveID, err := strconv.ParseUint(field("slaveId"), 10, 8)
	if err != nil {
		return p, fmt.Errorf("invalid slaveId: %w", err)
	}
	if slaveID == 0 || slaveID > 247 {
		return p, fmt.Errorf("invalid slaveId: %d (must be 1-247)", slaveID)
	}
	p.SlaveID = uint8(slaveID)

	function, err := strconv.ParseUint(field("function"), 10, 8)
	if err != nil {
		return p, fmt.Errorf("invalid function: %w", err)
	}
	switch function {
	case FuncCodeReadCoils, FuncCodeReadDiscreteInputs,
		FuncCodeReadHoldingRegisters, FuncCodeReadInputRegisters:
	default:
		return p, fmt.Errorf("function %d is not a read operation", function)
	}
	p.Function = uint8(function)

	address, err := strconv.ParseUint(field("address"), 10, 16)
	if err != nil {
		return p, fmt.Errorf("invalid address: %w", err)
	}
	p.Address = uint16(address)

	quantity, err := strconv.ParseUint(field("quantity"), 10, 16)
	if err != nil {
		return p, fmt.Errorf("invalid quantity: %w", err)
	}
	if quantity == 0 {
		return p, fmt.Errorf("quantity must be positive")
	}
	p.Quantity = uint16(quantity)

	return p, nil
}
