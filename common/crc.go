// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains functions used across multiple packages. For
// example, a CRC8 verification.
package common

// The CRC generator polynomial x^8 + x^5 + x^4 + 1 (0x131), pre-shifted to
// the top of a 24-bit window holding the 16-bit value and its 8-bit checksum.
const shiftedPolynomial uint32 = 0x988000

// CheckCRC8 reports whether checksum validates the 16-bit value. The
// HTU21D/SHT21/Si7021 sensor family appends an 8-bit CRC to each 2-byte
// reading; a transmission is intact iff dividing the concatenated 24 bits
// by the generator polynomial leaves a zero remainder.
func CheckCRC8(value uint16, checksum byte) bool {
	remainder := uint32(value)<<8 | uint32(checksum)
	divisor := shiftedPolynomial

	// Only the 16 message bit positions need to be reduced. What is left in
	// the low 8 bits afterward is the remainder.
	for i := 0; i < 16; i++ {
		if remainder&(uint32(1)<<(23-i)) != 0 {
			remainder ^= divisor
		}
		divisor >>= 1
	}
	return remainder == 0
}
