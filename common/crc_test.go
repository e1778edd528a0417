// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package common

import "testing"

// Vectors from the HTU21D datasheet.
var crcVectors = []struct {
	value    uint16
	checksum byte
}{
	{value: 0x00dc, checksum: 0x79},
	{value: 0x683a, checksum: 0x7c},
	{value: 0x4e85, checksum: 0x6b},
}

func TestCheckCRC8(t *testing.T) {
	for _, test := range crcVectors {
		if !CheckCRC8(test.value, test.checksum) {
			t.Errorf("CheckCRC8(%#04x, %#02x) failed, expected pass", test.value, test.checksum)
		}
	}
}

// Any single corrupted bit in the checksum or the value must be detected.
func TestCheckCRC8Corruption(t *testing.T) {
	for _, test := range crcVectors {
		for bit := 0; bit < 8; bit++ {
			bad := test.checksum ^ (1 << bit)
			if CheckCRC8(test.value, bad) {
				t.Errorf("CheckCRC8(%#04x, %#02x) passed with corrupted checksum", test.value, bad)
			}
		}
		for bit := 0; bit < 16; bit++ {
			bad := test.value ^ (1 << bit)
			if CheckCRC8(bad, test.checksum) {
				t.Errorf("CheckCRC8(%#04x, %#02x) passed with corrupted value", bad, test.checksum)
			}
		}
	}
}
