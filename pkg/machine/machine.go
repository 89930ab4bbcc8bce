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

package machine

import (
	"io"

	"github.com/pkg/errors"

	"github.com/AyoubElken/PFS-CPU/pkg/encoding"
)

func (mc *MachineState) Reset() {
	for i, _ := range mc.Registers {
		mc.Registers[i] = 0
	}

	for i, _ := range mc.Memory {
		mc.Memory[i] = 0
	}

	mc.Program = 0
}

// Loads a hex image into memory, one word per line placed consecutively
// from address zero
func (mc *Machine) LoadHex(reader io.Reader) error {
	mc.State.Reset()
	mc.Halted = false

	words, err := encoding.ReadHexWords(reader)

	if err != nil {
		return errors.Wrap(err, "failed to read hex image")
	}

	if uint32(len(words)) > MEM_SIZE/4 {
		return errors.Errorf("hex image exceeds memory: %d words", len(words))
	}

	for i, word := range words {
		mc.store(uint32(i)*4, 4, word)
	}

	return nil
}

func (mc *Machine) load(addr uint32, size uint32) uint32 {
	var value uint32

	for i := uint32(0); i < size; i++ {
		value |= uint32(mc.State.Memory[(addr+i)&MEM_MASK]) << (8 * i)
	}

	return value
}

func (mc *Machine) store(addr uint32, size uint32, value uint32) {
	for i := uint32(0); i < size; i++ {
		mc.State.Memory[(addr+i)&MEM_MASK] = byte(value >> (8 * i))
	}
}

func (dev *DeviceHandler) poll() bool {
	if dev.pending {
		return true
	}

	if dev.Keyboard == nil {
		return false
	}

	key, err := dev.Keyboard.ReadByte()

	if err == io.EOF {
		return false
	} else if err != nil {
		panic(err)
	}

	dev.key = key
	dev.pending = true

	return true
}

func (dev *DeviceHandler) take() byte {
	if !dev.pending {
		return 0
	}

	dev.pending = false

	return dev.key
}

func (mc *Machine) read(addr uint32, size uint32) uint32 {
	var result uint32

	switch addr {
	case DEV_KBSR:
		if mc.Devices != nil && mc.Devices.poll() {
			result = DEV_READY
		}

	case DEV_KBDR:
		if mc.Devices != nil {
			result = uint32(mc.Devices.take())
		}

	case DEV_DSR:
		if mc.Devices != nil && mc.Devices.Display != nil &&
			mc.Devices.Display.Available() > 0 {
			result = DEV_READY
		}

	case DEV_DDR:
		// Write only register

	default:
		result = mc.load(addr, size)
	}

	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return result
}

func (mc *Machine) write(addr uint32, size uint32, value uint32) {
	switch addr {
	case DEV_DDR:
		if mc.Devices != nil && mc.Devices.Display != nil {
			err := mc.Devices.Display.WriteByte(byte(value & 0xFF))

			if err != nil {
				panic(err)
			}

			err = mc.Devices.Display.Flush()

			if err != nil {
				panic(err)
			}
		}

	case DEV_KBSR, DEV_KBDR, DEV_DSR:
		// Read only registers

	default:
		mc.store(addr, size, value)
	}

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}
}

// Fetches and executes the instruction at the program counter. A zero word
// halts the machine in place, running off the end of a program stops it
// instead of sliding through uninitialized memory.
func (mc *Machine) Step() error {
	word := mc.read(mc.State.Program, 4)

	if word == 0 {
		mc.Halted = true
		return nil
	}

	opcode := encoding.Bits(word, 0, 7)
	rd := encoding.Bits(word, 7, 5)
	funct3 := encoding.Bits(word, 12, 3)
	rs1 := encoding.Bits(word, 15, 5)
	rs2 := encoding.Bits(word, 20, 5)

	next := mc.State.Program + 4

	switch opcode {
	// add  |0000000|rs2  |rs1  |000|rd   |0110011| Register arithmetic
	// sub  |0100000|rs2  |rs1  |000|rd   |0110011|
	// ---- [ _______ _____ _____ ___ _____ _______ ]
	case encoding.OP_REG:
		a := mc.State.Registers[rs1]
		b := mc.State.Registers[rs2]

		var result uint32

		switch funct3 {
		case encoding.FUNCT3_ADD:
			if encoding.Bits(word, 25, 7) == encoding.FUNCT7_ALT {
				result = a - b
			} else {
				result = a + b
			}

		case encoding.FUNCT3_SLL:
			result = a << (b & 0x1F)

		case encoding.FUNCT3_SLT:
			if int32(a) < int32(b) {
				result = 1
			}

		case encoding.FUNCT3_SLTU:
			if a < b {
				result = 1
			}

		case encoding.FUNCT3_XOR:
			result = a ^ b

		case encoding.FUNCT3_SRL:
			if encoding.Bits(word, 25, 7) == encoding.FUNCT7_ALT {
				result = uint32(int32(a) >> (b & 0x1F))
			} else {
				result = a >> (b & 0x1F)
			}

		case encoding.FUNCT3_OR:
			result = a | b

		case encoding.FUNCT3_AND:
			result = a & b
		}

		mc.State.Registers[rd] = result

	// addi |imm11:0     |rs1  |000|rd   |0010011| Immediate arithmetic
	// ---- [ ____________ _____ ___ _____ _______ ]
	case encoding.OP_IMM:
		a := mc.State.Registers[rs1]
		imm := encoding.SignExtend(encoding.Bits(word, 20, 12), 12)

		var result uint32

		switch funct3 {
		case encoding.FUNCT3_ADD:
			result = a + imm

		case encoding.FUNCT3_SLL:
			result = a << (imm & 0x1F)

		case encoding.FUNCT3_SLT:
			if int32(a) < int32(imm) {
				result = 1
			}

		case encoding.FUNCT3_SLTU:
			if a < imm {
				result = 1
			}

		case encoding.FUNCT3_XOR:
			result = a ^ imm

		// The shift amount field carries the arithmetic marker in bit
		// ten, mirrored to word bit thirty
		case encoding.FUNCT3_SRL:
			if encoding.Bits(word, 30, 1) == 1 {
				result = uint32(int32(a) >> (imm & 0x1F))
			} else {
				result = a >> (imm & 0x1F)
			}

		case encoding.FUNCT3_OR:
			result = a | imm

		case encoding.FUNCT3_AND:
			result = a & imm
		}

		mc.State.Registers[rd] = result

	// lw   |imm11:0     |rs1  |010|rd   |0000011| Memory load
	// ---- [ ____________ _____ ___ _____ _______ ]
	case encoding.OP_LOAD:
		imm := encoding.SignExtend(encoding.Bits(word, 20, 12), 12)
		addr := mc.State.Registers[rs1] + imm

		var result uint32

		switch funct3 {
		case encoding.FUNCT3_BYTE:
			result = encoding.SignExtend(mc.read(addr, 1), 8)

		case encoding.FUNCT3_HALF:
			result = encoding.SignExtend(mc.read(addr, 2), 16)

		case encoding.FUNCT3_WORD:
			result = mc.read(addr, 4)

		case encoding.FUNCT3_BYTEU:
			result = mc.read(addr, 1)

		case encoding.FUNCT3_HALFU:
			result = mc.read(addr, 2)

		default:
			return &IllegalInstructionError{mc.State.Program, word}
		}

		mc.State.Registers[rd] = result

	// sw   |imm11:5|rs2  |rs1  |010|imm4:0|0100011| Memory store
	// ---- [ _______ _____ _____ ___ _____  _______ ]
	case encoding.OP_STORE:
		imm := encoding.SignExtend(
			encoding.Bits(word, 25, 7)<<5|encoding.Bits(word, 7, 5), 12,
		)
		addr := mc.State.Registers[rs1] + imm

		switch funct3 {
		case encoding.FUNCT3_BYTE:
			mc.write(addr, 1, mc.State.Registers[rs2])

		case encoding.FUNCT3_HALF:
			mc.write(addr, 2, mc.State.Registers[rs2])

		case encoding.FUNCT3_WORD:
			mc.write(addr, 4, mc.State.Registers[rs2])

		default:
			return &IllegalInstructionError{mc.State.Program, word}
		}

	// beq  |imm|imm9:4|rs2  |rs1  |000|imm3:0|imm|1100011| Branch
	// ---- [ _   ______ _____ _____ ___ ____   _   _______ ]
	case encoding.OP_BRANCH:
		a := mc.State.Registers[rs1]
		b := mc.State.Registers[rs2]

		var taken bool

		switch funct3 {
		case encoding.FUNCT3_BEQ:
			taken = a == b

		case encoding.FUNCT3_BNE:
			taken = a != b

		case encoding.FUNCT3_BLT:
			taken = int32(a) < int32(b)

		case encoding.FUNCT3_BGE:
			taken = int32(a) >= int32(b)

		case encoding.FUNCT3_BLTU:
			taken = a < b

		case encoding.FUNCT3_BGEU:
			taken = a >= b

		default:
			return &IllegalInstructionError{mc.State.Program, word}
		}

		if taken {
			next = mc.State.Program +
				uint32(encoding.DecodeBranchOffset(word))
		}

	// lui  |imm31:12            |rd   |0110111| Upper immediate
	// ---- [ ____________________ _____ _______ ]
	case encoding.OP_LUI:
		mc.State.Registers[rd] = encoding.Bits(word, 12, 20) << 12

	// auipc|imm31:12            |rd   |0010111| Upper immediate plus PC
	// ---- [ ____________________ _____ _______ ]
	case encoding.OP_AUIPC:
		mc.State.Registers[rd] = mc.State.Program +
			encoding.Bits(word, 12, 20)<<12

	// jal  |imm|imm9:0    |imm|imm18:11|rd   |1101111| Jump and link
	// ---- [ _   __________ _   ________ _____ _______ ]
	case encoding.OP_JAL:
		mc.State.Registers[rd] = next
		next = mc.State.Program + uint32(encoding.DecodeJumpOffset(word))

	// jalr |imm11:0     |rs1  |000|rd   |1100111| Jump register and link
	// ---- [ ____________ _____ ___ _____ _______ ]
	case encoding.OP_JALR:
		imm := encoding.SignExtend(encoding.Bits(word, 20, 12), 12)
		target := (mc.State.Registers[rs1] + imm) &^ 1

		mc.State.Registers[rd] = next
		next = target

	default:
		return &IllegalInstructionError{mc.State.Program, word}
	}

	mc.State.Program = next

	// x0 is hardwired to zero no matter what was written to it
	mc.State.Registers[0] = 0

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	return nil
}
