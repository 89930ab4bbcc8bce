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

package assembler

const (
	TOKEN_NONE TokenType = iota
	TOKEN_LABEL
	TOKEN_MNEMONIC
	TOKEN_REGISTER
	TOKEN_IMMEDIATE
	TOKEN_COMMA
	TOKEN_LPAREN
	TOKEN_RPAREN
	TOKEN_DIRECTIVE
)

const (
	FORMAT_INVALID InstructionFormat = iota
	FORMAT_R
	FORMAT_I
	FORMAT_S
	FORMAT_B
	FORMAT_U
	FORMAT_J
	FORMAT_PSEUDO
)

// addi x0, x0, 0
const WORD_NOP uint32 = 0x0000_0013
