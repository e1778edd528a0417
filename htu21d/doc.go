// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package htu21d controls a Measurement Specialties HTU21D relative
// humidity/temperature sensor over I²C.
// The sensor has a fixed bus address and is driven in "no hold" mode: a
// measurement is triggered, the bus is released while the chip converts, and
// the result is collected by polling. The htu21d.Dev type implements the
// physic.SenseEnv interface; the physic.Env results carry a temperature and
// a humidity value, the pressure is always 0.
//
// Resolution is programmed through the device's user register. The register
// rewrite is a plain read-modify-write on the bus with no atomicity
// guarantee, so the driver assumes it is the only master touching the
// device.
//
// # Datasheet
//
// https://cdn-shop.adafruit.com/datasheets/1899_HTU21D.pdf
package htu21d
