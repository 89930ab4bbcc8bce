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
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Packs a field value into an instruction word at the given bit offset,
// truncating the value to the field width
func Pack(value uint32, offset uint, width uint) uint32 {
	return (value & ((1 << width) - 1)) << offset
}

// Extracts a field of the given width from an instruction word
func Bits(word uint32, offset uint, width uint) uint32 {
	return (word >> offset) & ((1 << width) - 1)
}

func SignExtend(value uint32, bitcount uint) uint32 {
	if (value>>(bitcount-1))&0x1 == 1 {
		value |= (0xFFFFFFFF << bitcount)
	}

	return value
}

// Decodes an immediate string with base auto-detection: 0x or 0X prefix for
// hexadecimal, leading zero for octal, decimal otherwise. An optional sign is
// accepted and wide values truncate to 32 bits.
func DecodeImmediate(s string) (int32, error) {
	result, err := strconv.ParseInt(s, 0, 64)

	if err != nil {
		return 0, err
	}

	return int32(result), nil
}

// Decodes a hexidecimal string in the formats: 0xFFFFFFFF, xFFFF, FFFF
func DecodeHex(s string) (uint32, error) {
	if i := strings.IndexAny(s, "xX"); i == 0 {
		s = "0" + s
	} else if i == -1 {
		s = "0x" + s
	} else if i != 1 {
		return 0, errors.New("Invalid hex string")
	}

	result, err := strconv.ParseUint(s, 0, 32)

	if err != nil {
		return 0, err
	}

	return uint32(result), nil
}

// Scatters a branch offset into the B-type immediate fields. The offset is
// halved before splitting, so its lowest bit never reaches the word: branch
// targets are expected to be word aligned.
func EncodeBranchOffset(offset int32) uint32 {
	imm := uint32(offset>>1) & 0xFFF

	return Pack((imm>>10)&0x1, 7, 1) |
		Pack((imm>>1)&0xF, 8, 4) |
		Pack((imm>>5)&0x3F, 25, 6) |
		Pack((imm>>11)&0x1, 31, 1)
}

// Gathers the B-type immediate fields back into a byte offset
func DecodeBranchOffset(word uint32) int32 {
	imm := Bits(word, 31, 1)<<11 |
		Bits(word, 7, 1)<<10 |
		Bits(word, 25, 6)<<5 |
		Bits(word, 8, 4)<<1

	return int32(SignExtend(imm, 12)) << 1
}

// Scatters a jump offset into the J-type immediate fields
func EncodeJumpOffset(offset int32) uint32 {
	imm := uint32(offset>>1) & 0xFFFFF

	return Pack((imm>>11)&0xFF, 12, 8) |
		Pack((imm>>10)&0x1, 20, 1) |
		Pack(imm&0x3FF, 21, 10) |
		Pack((imm>>19)&0x1, 31, 1)
}

// Gathers the J-type immediate fields back into a byte offset
func DecodeJumpOffset(word uint32) int32 {
	imm := Bits(word, 31, 1)<<19 |
		Bits(word, 12, 8)<<11 |
		Bits(word, 20, 1)<<10 |
		Bits(word, 21, 10)

	return int32(SignExtend(imm, 20)) << 1
}

// Writes one word per line as eight lowercase hex digits, the image format
// the simulator loads
func WriteHexWords(w io.Writer, words []uint32) error {
	for _, word := range words {
		if _, err := fmt.Fprintf(w, "%08x\n", word); err != nil {
			return err
		}
	}

	return nil
}

// Reads a hex image, one word per line, skipping blank lines
func ReadHexWords(r io.Reader) ([]uint32, error) {
	var words []uint32

	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if len(line) == 0 {
			continue
		}

		word, err := DecodeHex(line)

		if err != nil {
			return nil, err
		}

		words = append(words, word)
	}

	return words, scanner.Err()
}
