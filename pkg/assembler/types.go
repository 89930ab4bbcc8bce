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

import (
	"fmt"
)

type TokenType uint
type InstructionFormat uint

type Cursor struct {
	Line     int
	Column   int
	Byte     int64
	Size     int64
	LineByte int64
}

type Token struct {
	Type     TokenType
	Position Cursor
	Value    string
}

type InstructionDef struct {
	Format InstructionFormat
	Opcode uint32
	Funct3 uint32
	Funct7 uint32
}

type SymTable struct {
	Source  string
	Symbols map[uint32]int64
	Labels  map[uint32]string
}

type Assembler struct {
	Tokens  []Token
	Symbols map[string]uint32
	Words   []uint32
}

type TokenError interface {
	GetPosition() Cursor
}

type UnexpectedCharacterError struct {
	Position Cursor
	Received rune
}

func (err *UnexpectedCharacterError) GetPosition() Cursor {
	return err.Position
}

func (err *UnexpectedCharacterError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Unexpected character %c",
		err.Position.Line,
		err.Position.Column,
		err.Received,
	)
}

type UnexpectedEndError struct {
	Position Cursor
}

func (err *UnexpectedEndError) GetPosition() Cursor {
	return err.Position
}

func (err *UnexpectedEndError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Unexpected end of input",
		err.Position.Line,
		err.Position.Column,
	)
}

type InvalidLiteralError struct {
	Position Cursor
}

func (err *InvalidLiteralError) GetPosition() Cursor {
	return err.Position
}

func (err *InvalidLiteralError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Invalid numeric literal",
		err.Position.Line,
		err.Position.Column,
	)
}

type InvalidRegisterError struct {
	Position Cursor
}

func (err *InvalidRegisterError) GetPosition() Cursor {
	return err.Position
}

func (err *InvalidRegisterError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Invalid register identifier",
		err.Position.Line,
		err.Position.Column,
	)
}

type UnknownInstructionError struct {
	Position Cursor
	Received string
}

func (err *UnknownInstructionError) GetPosition() Cursor {
	return err.Position
}

func (err *UnknownInstructionError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Unknown instruction '%s'",
		err.Position.Line,
		err.Position.Column,
		err.Received,
	)
}

type RedeclaredLabelError struct {
	Position Cursor
	Received string
}

func (err *RedeclaredLabelError) GetPosition() Cursor {
	return err.Position
}

func (err *RedeclaredLabelError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Redeclaration of label '%s'",
		err.Position.Line,
		err.Position.Column,
		err.Received,
	)
}

type UnknownLabelError struct {
	Position Cursor
	Received string
}

func (err *UnknownLabelError) GetPosition() Cursor {
	return err.Position
}

func (err *UnknownLabelError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Unknown label '%s'",
		err.Position.Line,
		err.Position.Column,
		err.Received,
	)
}

type MisalignedLabelError struct {
	Position Cursor
	Received int64
}

func (err *MisalignedLabelError) GetPosition() Cursor {
	return err.Position
}

func (err *MisalignedLabelError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Misaligned label offset %d",
		err.Position.Line,
		err.Position.Column,
		err.Received,
	)
}
