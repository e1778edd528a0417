// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package htu21d

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/airmon/devices/common"
)

const (
	// The address of this device is fixed.
	SensorAddress uint16 = 0x40

	cmdTriggerTempNoHold     byte = 0xf3
	cmdTriggerHumidityNoHold byte = 0xf5
	cmdWriteUserRegister     byte = 0xe6
	cmdReadUserRegister      byte = 0xe7
	cmdSoftReset             byte = 0xfe
)

const (
	// The low 2 bits of a raw reading are status bits, not measurement data.
	statusBitsMask uint16 = 0xfffc

	// Bits 7 and 0 of the user register select the resolution. The bits in
	// between are reserved or control other device behavior and must survive
	// a rewrite.
	resolutionBitsMask byte = 0b1000_0001
	reservedBitsMask   byte = 0b0111_1110

	// A Sense performs two complete measurements, each bounded by the poll
	// loop.
	minSampleInterval = 100 * time.Millisecond
)

// Resolution selects one of the four measurement resolution modes encoded
// in bits 7 and 0 of the user register. Higher resolution costs conversion
// time.
type Resolution byte

// Resolution modes from page 12 of the datasheet, named after the RH and
// temperature bit widths they select. ResolutionRH12Temp14 is the power-on
// default.
const (
	ResolutionRH12Temp14 Resolution = 0b0000_0000
	ResolutionRH8Temp12  Resolution = 0b0000_0001
	ResolutionRH10Temp13 Resolution = 0b1000_0000
	ResolutionRH11Temp11 Resolution = 0b1000_0001
)

// Opts holds the configuration options for the device.
type Opts struct {
	// PollInterval is the delay before each attempt to collect a finished
	// measurement in no-hold mode. Leave 0 to use the default of 10ms.
	PollInterval time.Duration
	// PollAttempts bounds how many collection attempts are made before the
	// measurement is abandoned with a ReadTimeoutError. Leave 0 to use the
	// default of 10.
	PollAttempts int
}

// DefaultOpts holds the default configuration options for the device. The
// datasheet quotes a worst-case conversion of 50ms; the defaults allow
// double that.
var DefaultOpts = Opts{
	PollInterval: 10 * time.Millisecond,
	PollAttempts: 10,
}

// Dev represents an HTU21D humidity/temperature sensor.
type Dev struct {
	d    *i2c.Dev
	opts Opts
	// sleep is replaceable so tests can drive the poll loop without waiting
	// out real delays.
	sleep    func(time.Duration)
	mu       sync.Mutex
	shutdown chan struct{}
}

// NewI2C returns a driver for an HTU21D connected on the given bus, which
// remains owned by the caller. Opts can be nil to use DefaultOpts.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	o := *opts
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultOpts.PollInterval
	}
	if o.PollAttempts <= 0 {
		o.PollAttempts = DefaultOpts.PollAttempts
	}
	return &Dev{d: &i2c.Dev{Bus: b, Addr: SensorAddress}, opts: o, sleep: time.Sleep}, nil
}

// readValue triggers a no-hold measurement and collects its result. While
// the chip is still converting it NAKs its read address, so collection is
// retried at most opts.PollAttempts times, opts.PollInterval apart. A
// reading that fails CRC8 verification is discarded, never returned. The
// status bits of a verified reading are zeroed.
func (d *Dev) readValue(cmd byte) (uint16, error) {
	if err := d.d.Tx([]byte{cmd}, nil); err != nil {
		return 0, fmt.Errorf("htu21d: error triggering measurement: %w", err)
	}

	// Comes back in three bytes, data(MSB) / data(LSB) / checksum.
	var buf [3]byte
	for attempt := 0; attempt < d.opts.PollAttempts; attempt++ {
		d.sleep(d.opts.PollInterval)
		if err := d.d.Tx(nil, buf[:]); err != nil {
			continue
		}
		raw := uint16(buf[0])<<8 | uint16(buf[1])
		if !common.CheckCRC8(raw, buf[2]) {
			return 0, &ChecksumError{}
		}
		return raw & statusBitsMask, nil
	}
	return 0, &ReadTimeoutError{}
}

// Conversion formulas from page 15 of the datasheet. The device may report
// slightly out-of-range values at the extremes; they are passed through
// unclamped.
func humidityFromRaw(raw uint16) float64 {
	return float64(raw)*(125.0/65536.0) - 6.0
}

func temperatureFromRaw(raw uint16) float64 {
	return float64(raw)*(175.72/65536.0) - 46.85
}

// ReadHumidity performs a single relative humidity measurement. The call
// blocks for the measurement duration, up to the full polling bound.
func (d *Dev) ReadHumidity() (physic.RelativeHumidity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := d.readValue(cmdTriggerHumidityNoHold)
	if err != nil {
		return 0, err
	}
	return physic.RelativeHumidity(humidityFromRaw(raw) * float64(physic.PercentRH)), nil
}

// ReadTemperature performs a single temperature measurement. The call
// blocks for the measurement duration, up to the full polling bound.
func (d *Dev) ReadTemperature() (physic.Temperature, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := d.readValue(cmdTriggerTempNoHold)
	if err != nil {
		return 0, err
	}
	return physic.Temperature(temperatureFromRaw(raw)*float64(physic.Celsius)) + physic.ZeroCelsius, nil
}

// Sense measures both humidity and temperature. Implements
// physic.SenseEnv. The pressure is always 0 since the HTU21D does not
// measure pressure. Each call performs two complete measurements back to
// back.
func (d *Dev) Sense(e *physic.Env) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	e.Temperature = 0
	e.Pressure = 0
	e.Humidity = 0

	rawH, err := d.readValue(cmdTriggerHumidityNoHold)
	if err != nil {
		return err
	}
	rawT, err := d.readValue(cmdTriggerTempNoHold)
	if err != nil {
		return err
	}
	e.Humidity = physic.RelativeHumidity(humidityFromRaw(rawH) * float64(physic.PercentRH))
	e.Temperature = physic.Temperature(temperatureFromRaw(rawT)*float64(physic.Celsius)) + physic.ZeroCelsius
	return nil
}

// SenseContinuous continuously measures at the given interval and sends the
// results to the returned channel. To terminate the read, call Halt().
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	if d.shutdown != nil {
		return nil, errors.New("htu21d: SenseContinuous already running")
	}
	if interval < minSampleInterval {
		return nil, errors.New("htu21d: sample interval is shorter than a measurement cycle")
	}
	d.shutdown = make(chan struct{})
	ch := make(chan physic.Env, 16)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		defer close(ch)
		for {
			select {
			case <-d.shutdown:
				d.mu.Lock()
				defer d.mu.Unlock()
				d.shutdown = nil
				return
			case <-ticker.C:
				e := physic.Env{}
				if err := d.Sense(&e); err == nil {
					ch <- e
				}
			}
		}
	}()
	return ch, nil
}

// SetResolution selects a resolution mode by rewriting the user register.
// Bits outside the resolution field are read back from the device and
// preserved; bits outside the field in the requested value are silently
// discarded. The read-modify-write sequence is not atomic: nothing stops
// another bus master from interleaving its own register write.
func (d *Dev) SetResolution(r Resolution) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	reg, err := d.readUserRegister()
	if err != nil {
		return err
	}
	reg &= reservedBitsMask
	reg |= byte(r) & resolutionBitsMask
	return d.writeUserRegister(reg)
}

// Resolution returns the resolution mode currently programmed in the user
// register.
func (d *Dev) Resolution() (Resolution, error) {
	reg, err := d.ReadUserRegister()
	if err != nil {
		return 0, err
	}
	return Resolution(reg & resolutionBitsMask), nil
}

// ReadUserRegister returns the current contents of the device's user
// register.
func (d *Dev) ReadUserRegister() (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readUserRegister()
}

func (d *Dev) readUserRegister() (byte, error) {
	var buf [1]byte
	if err := d.d.Tx([]byte{cmdReadUserRegister}, buf[:]); err != nil {
		return 0, fmt.Errorf("htu21d: error reading user register: %w", err)
	}
	return buf[0], nil
}

func (d *Dev) writeUserRegister(value byte) error {
	if err := d.d.Tx([]byte{cmdWriteUserRegister, value}, nil); err != nil {
		return fmt.Errorf("htu21d: error writing user register: %w", err)
	}
	return nil
}

// Reset issues a soft reset. The device reboots in under 15ms with the user
// register restored to its default, except for the heater bit.
func (d *Dev) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.d.Tx([]byte{cmdSoftReset}, nil); err != nil {
		return fmt.Errorf("htu21d: error resetting: %w", err)
	}
	d.sleep(15 * time.Millisecond) // reboot time from the datasheet
	return nil
}

// Precision returns the resolution of the device for its measured
// parameters, at the power-on default of 12-bit humidity and 14-bit
// temperature. Implements physic.SenseEnv.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = physic.Kelvin / 100
	e.Humidity = 30 * physic.MilliRH
	e.Pressure = 0
}

// Halt interrupts a running SenseContinuous(). Implements conn.Resource.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.shutdown != nil {
		close(d.shutdown)
	}
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("htu21d: %s", d.d)
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
