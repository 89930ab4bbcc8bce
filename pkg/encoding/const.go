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

// Base opcodes, instruction word bits 6..0
const (
	OP_LOAD   uint32 = 0x03
	OP_IMM    uint32 = 0x13
	OP_AUIPC  uint32 = 0x17
	OP_STORE  uint32 = 0x23
	OP_REG    uint32 = 0x33
	OP_LUI    uint32 = 0x37
	OP_BRANCH uint32 = 0x63
	OP_JALR   uint32 = 0x67
	OP_JAL    uint32 = 0x6F
)

// funct3 selectors for OP_REG and OP_IMM
const (
	FUNCT3_ADD  uint32 = 0x0
	FUNCT3_SLL  uint32 = 0x1
	FUNCT3_SLT  uint32 = 0x2
	FUNCT3_SLTU uint32 = 0x3
	FUNCT3_XOR  uint32 = 0x4
	FUNCT3_SRL  uint32 = 0x5
	FUNCT3_OR   uint32 = 0x6
	FUNCT3_AND  uint32 = 0x7
)

// funct3 selectors for OP_BRANCH
const (
	FUNCT3_BEQ  uint32 = 0x0
	FUNCT3_BNE  uint32 = 0x1
	FUNCT3_BLT  uint32 = 0x4
	FUNCT3_BGE  uint32 = 0x5
	FUNCT3_BLTU uint32 = 0x6
	FUNCT3_BGEU uint32 = 0x7
)

// funct3 selectors for OP_LOAD and OP_STORE
const (
	FUNCT3_BYTE  uint32 = 0x0
	FUNCT3_HALF  uint32 = 0x1
	FUNCT3_WORD  uint32 = 0x2
	FUNCT3_BYTEU uint32 = 0x4
	FUNCT3_HALFU uint32 = 0x5
)

// funct7 selecting the alternate ALU operation (sub, sra)
const FUNCT7_ALT uint32 = 0x20
