// Copyright (C) 2024  Ayoub Elken

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package encoding

import (
	"bytes"
	"strings"
	"testing"
)

func TestPack(t *testing.T) {
	tests := []struct {
		Name   string
		Value  uint32
		Offset uint
		Width  uint
		Result uint32
	}{
		{"Opcode", 0x33, 0, 7, 0x0000_0033},
		{"Register", 0x1F, 7, 5, 0x0000_0F80},
		{"Truncated", 0xFFF, 12, 3, 0x0000_7000},
		{"UpperImmediate", 0x12345, 12, 20, 0x1234_5000},
		{"TopBit", 0x1, 31, 1, 0x8000_0000},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			result := Pack(test.Value, test.Offset, test.Width)

			if result != test.Result {
				t.Fatalf("\nwant:%#08x\nhave:%#08x", test.Result, result)
			}
		})
	}
}

func TestBits(t *testing.T) {
	tests := []struct {
		Name   string
		Word   uint32
		Offset uint
		Width  uint
		Result uint32
	}{
		{"Opcode", 0x00A0_0293, 0, 7, 0x13},
		{"Destination", 0x00A0_0293, 7, 5, 0x5},
		{"Funct3", 0x00A0_0293, 12, 3, 0x0},
		{"Source", 0x00A0_0293, 15, 5, 0x0},
		{"Immediate", 0x00A0_0293, 20, 12, 0xA},
		{"TopBit", 0x8000_0000, 31, 1, 0x1},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			result := Bits(test.Word, test.Offset, test.Width)

			if result != test.Result {
				t.Fatalf("\nwant:%#08x\nhave:%#08x", test.Result, result)
			}
		})
	}
}

func TestSignExtend(t *testing.T) {
	tests := []struct {
		Name     string
		Value    uint32
		Bitcount uint
		Result   uint32
	}{
		{"PositiveTwelve", 0x0000_07FF, 12, 0x0000_07FF},
		{"NegativeTwelve", 0x0000_0FFE, 12, 0xFFFF_FFFE},
		{"PositiveTwenty", 0x0007_FFFF, 20, 0x0007_FFFF},
		{"NegativeTwenty", 0x000F_FFFE, 20, 0xFFFF_FFFE},
		{"Zero", 0x0000_0000, 12, 0x0000_0000},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			result := SignExtend(test.Value, test.Bitcount)

			if result != test.Result {
				t.Fatalf("\nwant:%#08x\nhave:%#08x", test.Result, result)
			}
		})
	}
}

func TestDecodeImmediate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		tests := []struct {
			Name   string
			Input  string
			Result int32
		}{
			{"Decimal", "10", 10},
			{"Negative", "-1", -1},
			{"Signed", "+5", 5},
			{"Hex", "0x10", 16},
			{"HexUpper", "0XFF", 255},
			{"NegativeHex", "-0x10", -16},
			{"Octal", "010", 8},
			{"Truncated", "0xFFFFFFFF", -1},
		}

		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				result, err := DecodeImmediate(test.Input)

				if err != nil {
					t.Fatal(err)
				}

				if result != test.Result {
					t.Fatalf("\nwant:%d\nhave:%d", test.Result, result)
				}
			})
		}
	})

	t.Run("Fail", func(t *testing.T) {
		tests := []struct {
			Name  string
			Input string
		}{
			{"Empty", ""},
			{"BarePrefix", "0x"},
			{"BareSign", "-"},
			{"BadOctal", "09"},
			{"Word", "foo"},
		}

		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				if _, err := DecodeImmediate(test.Input); err == nil {
					t.Fatal("Expected decoding error")
				}
			})
		}
	})
}

func TestDecodeHex(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		tests := []struct {
			Name   string
			Input  string
			Result uint32
		}{
			{"Prefixed", "0xFF", 0xFF},
			{"Short", "xFF", 0xFF},
			{"Bare", "FF", 0xFF},
			{"BareLower", "00a00293", 0x00A0_0293},
			{"Full", "0xFFFFFFFF", 0xFFFF_FFFF},
		}

		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				result, err := DecodeHex(test.Input)

				if err != nil {
					t.Fatal(err)
				}

				if result != test.Result {
					t.Fatalf("\nwant:%#08x\nhave:%#08x", test.Result, result)
				}
			})
		}
	})

	t.Run("Fail", func(t *testing.T) {
		tests := []struct {
			Name  string
			Input string
		}{
			{"Empty", ""},
			{"BarePrefix", "x"},
			{"MisplacedPrefix", "1x00"},
			{"NotHex", "xyzzy"},
			{"Oversized", "0x100000000"},
		}

		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				if _, err := DecodeHex(test.Input); err == nil {
					t.Fatal("Expected decoding error")
				}
			})
		}
	})
}

func TestBranchOffset(t *testing.T) {
	t.Run("Encode", func(t *testing.T) {
		tests := []struct {
			Name   string
			Offset int32
			Result uint32
		}{
			{"Zero", 0, 0x0000_0000},
			{"Forward", 8, 0x0000_0200},
			{"Backward", -4, 0xFE00_0F80},
		}

		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				result := EncodeBranchOffset(test.Offset)

				if result != test.Result {
					t.Fatalf("\nwant:%#08x\nhave:%#08x", test.Result, result)
				}
			})
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		offsets := []int32{-4096, -2048, -64, -4, 0, 4, 8, 64, 2048, 4092}

		for _, offset := range offsets {
			if result := DecodeBranchOffset(EncodeBranchOffset(offset)); result != offset {
				t.Fatalf("Offset %d:\nwant:%d\nhave:%d", offset, offset, result)
			}
		}
	})
}

func TestJumpOffset(t *testing.T) {
	t.Run("Encode", func(t *testing.T) {
		tests := []struct {
			Name   string
			Offset int32
			Result uint32
		}{
			{"Zero", 0, 0x0000_0000},
			{"Forward", 8, 0x0080_0000},
			{"Backward", -4, 0xFFDF_F000},
		}

		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				result := EncodeJumpOffset(test.Offset)

				if result != test.Result {
					t.Fatalf("\nwant:%#08x\nhave:%#08x", test.Result, result)
				}
			})
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		offsets := []int32{-1048576, -524288, -4096, -4, 0, 4, 4096, 524284, 1048572}

		for _, offset := range offsets {
			if result := DecodeJumpOffset(EncodeJumpOffset(offset)); result != offset {
				t.Fatalf("Offset %d:\nwant:%d\nhave:%d", offset, offset, result)
			}
		}
	})
}

func TestHexWords(t *testing.T) {
	words := []uint32{0x00A0_0293, 0xDEAD_BEEF, 0x0000_0000, 0xFFDF_F06F}

	var buffer bytes.Buffer

	if err := WriteHexWords(&buffer, words); err != nil {
		t.Fatal(err)
	}

	expected := "00a00293\ndeadbeef\n00000000\nffdff06f\n"

	if buffer.String() != expected {
		t.Fatalf("\nwant:%q\nhave:%q", expected, buffer.String())
	}

	result, err := ReadHexWords(strings.NewReader(buffer.String()))

	if err != nil {
		t.Fatal(err)
	}

	if len(result) != len(words) {
		t.Fatalf("Word count:\nwant:%d\nhave:%d", len(words), len(result))
	}

	for i := range words {
		if result[i] != words[i] {
			t.Fatalf("Word %d:\nwant:%#08x\nhave:%#08x", i, words[i], result[i])
		}
	}
}
