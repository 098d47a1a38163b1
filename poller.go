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
	"sync"
	"sync/atomic"
	"time"
)

// Sample is the value of one point at one poll cycle. Bits is set for the
// coil and discrete-input functions, Registers for the register functions.
type Sample struct {
	Point     Point
	At        time.Time
	Bits      []bool
	Registers []uint16
}

// OnDataFunc is a callback type for delivering one poll cycle's samples.
type OnDataFunc func([]Sample)

// OnErrorFunc is a callback type for per-point read failures.
type OnErrorFunc func(Point, error)

// Poller reads a point table through one client at a fixed interval.
// Points are always read sequentially: a serial session admits exactly one
// in-flight transaction, so there is nothing to parallelize.
type Poller struct {
	client   *Client
	points   []Point
	interval time.Duration
	onData   atomic.Value
	onError  atomic.Value
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewPoller creates a poller for the given point table.
func NewPoller(client *Client, points []Point, interval time.Duration) *Poller {
	return &Poller{
		client:   client,
		points:   points,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// SetOnData sets the callback for completed poll cycles.
func (p *Poller) SetOnData(fn OnDataFunc) {
	p.onData.Store(fn)
}

// SetOnError sets the callback for per-point read failures.
func (p *Poller) SetOnError(fn OnErrorFunc) {
	p.onError.Store(fn)
}

// Start launches the poll loop. The first cycle runs immediately.
func (p *Poller) Start() {
	go func() {
		defer close(p.doneCh)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		p.dispatch(p.PollOnce())
		for {
			select {
			case <-p.stopCh:
				return
			case <-ticker.C:
				p.dispatch(p.PollOnce())
			}
		}
	}()
}

// Stop halts the poll loop and waits for the current cycle to finish.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	<-p.doneCh
}

// PollOnce reads every point once, in table order. Failed points are
// reported through the error callback and skipped; the cycle continues.
func (p *Poller) PollOnce() []Sample {
	samples := make([]Sample, 0, len(p.points))
	for _, point := range p.points {
		sample, err := p.readPoint(point)
		if err != nil {
			if cb := p.onError.Load(); cb != nil {
				cb.(OnErrorFunc)(point, err)
			}
			continue
		}
		samples = append(samples, sample)
	}
	return samples
}

func (p *Poller) readPoint(point Point) (Sample, error) {
	sample := Sample{Point: point, At: time.Now()}
	switch point.Function {
	case FuncCodeReadCoils:
		bits, err := p.client.ReadCoils(point.SlaveID, point.Address, point.Quantity)
		if err != nil {
			return sample, err
		}
		sample.Bits = bits
	case FuncCodeReadDiscreteInputs:
		bits, err := p.client.ReadDiscreteInputs(point.SlaveID, point.Address, point.Quantity)
		if err != nil {
			return sample, err
		}
		sample.Bits = bits
	case FuncCodeReadHoldingRegisters:
		registers, err := p.client.ReadHoldingRegisters(point.SlaveID, point.Address, point.Quantity)
		if err != nil {
			return sample, err
		}
		sample.Registers = registers
	case FuncCodeReadInputRegisters:
		registers, err := p.client.ReadInputRegisters(point.SlaveID, point.Address, point.Quantity)
		if err != nil {
			return sample, err
		}
		sample.Registers = registers
	}
	return sample, nil
}

func (p *Poller) dispatch(samples []Sample) {
	if cb := p.onData.Load(); cb != nil {
		cb.(OnDataFunc)(samples)
	}
}
