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
	"strings"

	"github.com/AyoubElken/PFS-CPU/pkg/encoding"
)

var instructionTable = map[string]InstructionDef{
	// R-Type
	"add":  {FORMAT_R, 0x33, 0x0, 0x00},
	"sub":  {FORMAT_R, 0x33, 0x0, 0x20},
	"xor":  {FORMAT_R, 0x33, 0x4, 0x00},
	"or":   {FORMAT_R, 0x33, 0x6, 0x00},
	"and":  {FORMAT_R, 0x33, 0x7, 0x00},
	"sll":  {FORMAT_R, 0x33, 0x1, 0x00},
	"srl":  {FORMAT_R, 0x33, 0x5, 0x00},
	"sra":  {FORMAT_R, 0x33, 0x5, 0x20},
	"slt":  {FORMAT_R, 0x33, 0x2, 0x00},
	"sltu": {FORMAT_R, 0x33, 0x3, 0x00},

	// I-Type
	"addi":  {FORMAT_I, 0x13, 0x0, 0x00},
	"xori":  {FORMAT_I, 0x13, 0x4, 0x00},
	"ori":   {FORMAT_I, 0x13, 0x6, 0x00},
	"andi":  {FORMAT_I, 0x13, 0x7, 0x00},
	"slli":  {FORMAT_I, 0x13, 0x1, 0x00},
	"srli":  {FORMAT_I, 0x13, 0x5, 0x00},
	"srai":  {FORMAT_I, 0x13, 0x5, 0x20},
	"slti":  {FORMAT_I, 0x13, 0x2, 0x00},
	"sltiu": {FORMAT_I, 0x13, 0x3, 0x00},
	"lb":    {FORMAT_I, 0x03, 0x0, 0x00},
	"lh":    {FORMAT_I, 0x03, 0x1, 0x00},
	"lw":    {FORMAT_I, 0x03, 0x2, 0x00},
	"lbu":   {FORMAT_I, 0x03, 0x4, 0x00},
	"lhu":   {FORMAT_I, 0x03, 0x5, 0x00},
	"jalr":  {FORMAT_I, 0x67, 0x0, 0x00},

	// S-Type
	"sb": {FORMAT_S, 0x23, 0x0, 0x00},
	"sh": {FORMAT_S, 0x23, 0x1, 0x00},
	"sw": {FORMAT_S, 0x23, 0x2, 0x00},

	// B-Type
	"beq":  {FORMAT_B, 0x63, 0x0, 0x00},
	"bne":  {FORMAT_B, 0x63, 0x1, 0x00},
	"blt":  {FORMAT_B, 0x63, 0x4, 0x00},
	"bge":  {FORMAT_B, 0x63, 0x5, 0x00},
	"bltu": {FORMAT_B, 0x63, 0x6, 0x00},
	"bgeu": {FORMAT_B, 0x63, 0x7, 0x00},

	// U-Type
	"lui":   {FORMAT_U, 0x37, 0x0, 0x00},
	"auipc": {FORMAT_U, 0x17, 0x0, 0x00},

	// J-Type
	"jal": {FORMAT_J, 0x6F, 0x0, 0x00},

	// Pseudo-Instructions
	"nop": {FORMAT_PSEUDO, 0x13, 0x0, 0x00},
	"mv":  {FORMAT_PSEUDO, 0x13, 0x0, 0x00},
	"not": {FORMAT_PSEUDO, 0x13, 0x4, 0x00},
}

var registerTable = map[string]uint32{
	"x0": 0, "zero": 0, "x1": 1, "ra": 1, "x2": 2, "sp": 2,
	"x3": 3, "gp": 3, "x4": 4, "tp": 4, "x5": 5, "t0": 5,
	"x6": 6, "t1": 6, "x7": 7, "t2": 7, "x8": 8, "s0": 8, "fp": 8,
	"x9": 9, "s1": 9, "x10": 10, "a0": 10, "x11": 11, "a1": 11,
	"x12": 12, "a2": 12, "x13": 13, "a3": 13, "x14": 14, "a4": 14,
	"x15": 15, "a5": 15, "x16": 16, "a6": 16, "x17": 17, "a7": 17,
	"x18": 18, "s2": 18, "x19": 19, "s3": 19, "x20": 20, "s4": 20,
	"x21": 21, "s5": 21, "x22": 22, "s6": 22, "x23": 23, "s7": 23,
	"x24": 24, "s8": 24, "x25": 25, "s9": 25, "x26": 26, "s10": 26,
	"x27": 27, "s11": 27, "x28": 28, "t3": 28, "x29": 29, "t4": 29,
	"x30": 30, "t5": 30, "x31": 31, "t6": 31,
}

// Resolves a mnemonic to its encoding definition, case insensitively
func LookupInstruction(mnemonic string) (InstructionDef, bool) {
	def, ok := instructionTable[strings.ToLower(mnemonic)]
	return def, ok
}

// Resolves a register name or ABI alias to its register number, case
// insensitively
func LookupRegister(name string) (uint32, bool) {
	register, ok := registerTable[strings.ToLower(name)]
	return register, ok
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}

	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlnum(c byte) bool {
	return isAlpha(c) || isDigit(c)
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Splits assembly source into its token sequence. Token values are slices of
// the source string and remain valid only as long as it does.
func Tokenize(source string) ([]Token, error) {
	var tokens []Token

	line := 1
	lineByte := 0

	push := func(kind TokenType, start int, end int) {
		tokens = append(tokens, Token{
			Type: kind,
			Position: Cursor{
				Line:     line,
				Column:   start - lineByte + 1,
				Byte:     int64(start),
				Size:     int64(end - start),
				LineByte: int64(lineByte),
			},
			Value: source[start:end],
		})
	}

	for i := 0; i < len(source); {
		c := source[i]

		if c == '#' {
			for i < len(source) && source[i] != '\n' {
				i++
			}

			continue
		}

		if isSpace(c) {
			if c == '\n' {
				line++
				lineByte = i + 1
			}

			i++
			continue
		}

		if c == ',' {
			push(TOKEN_COMMA, i, i+1)
			i++
			continue
		}

		if c == '(' {
			push(TOKEN_LPAREN, i, i+1)
			i++
			continue
		}

		if c == ')' {
			push(TOKEN_RPAREN, i, i+1)
			i++
			continue
		}

		if c == '.' {
			start := i
			i++

			for i < len(source) && (isAlnum(source[i]) || source[i] == '_') {
				i++
			}

			push(TOKEN_DIRECTIVE, start, i)
			continue
		}

		if isAlpha(c) || c == '_' {
			start := i

			for i < len(source) && (isAlnum(source[i]) || source[i] == '_') {
				i++
			}

			if i < len(source) && source[i] == ':' {
				push(TOKEN_LABEL, start, i)
				i++
				continue
			}

			if _, ok := LookupRegister(source[start:i]); ok {
				push(TOKEN_REGISTER, start, i)
			} else {
				push(TOKEN_MNEMONIC, start, i)
			}

			continue
		}

		if c == '+' || c == '-' || isDigit(c) {
			start := i

			if c == '+' || c == '-' {
				i++
			}

			if i+1 < len(source) && source[i] == '0' &&
				(source[i+1] == 'x' || source[i+1] == 'X') {
				i += 2

				for i < len(source) && isHexDigit(source[i]) {
					i++
				}
			} else {
				for i < len(source) && isDigit(source[i]) {
					i++
				}
			}

			push(TOKEN_IMMEDIATE, start, i)
			continue
		}

		return nil, &UnexpectedCharacterError{
			Position: Cursor{
				Line:     line,
				Column:   i - lineByte + 1,
				Byte:     int64(i),
				Size:     1,
				LineByte: int64(lineByte),
			},
			Received: rune(c),
		}
	}

	return tokens, nil
}

func NewAssembler(tokens []Token) *Assembler {
	return &Assembler{
		Tokens:  tokens,
		Symbols: make(map[string]uint32),
	}
}

func (as *Assembler) next(i int) (Token, int, error) {
	i++

	if i >= len(as.Tokens) {
		last := as.Tokens[len(as.Tokens)-1]
		return Token{}, i, &UnexpectedEndError{last.Position}
	}

	return as.Tokens[i], i, nil
}

func (as *Assembler) nextRegister(i int) (uint32, int, error) {
	token, i, err := as.next(i)

	if err != nil {
		return 0, i, err
	}

	register, ok := LookupRegister(token.Value)

	if !ok {
		return 0, i, &InvalidRegisterError{token.Position}
	}

	return register, i, nil
}

func (as *Assembler) nextImmediate(i int) (int32, int, error) {
	token, i, err := as.next(i)

	if err != nil {
		return 0, i, err
	}

	imm, err := encoding.DecodeImmediate(token.Value)

	if err != nil {
		return 0, i, &InvalidLiteralError{token.Position}
	}

	return imm, i, nil
}

func (as *Assembler) nextOffset(i int, pc uint32) (int32, int, error) {
	token, i, err := as.next(i)

	if err != nil {
		return 0, i, err
	}

	target, ok := as.Symbols[token.Value]

	if !ok {
		return 0, i, &UnknownLabelError{token.Position, token.Value}
	}

	offset := int32(target - pc)

	if offset%2 != 0 {
		return 0, i, &MisalignedLabelError{token.Position, int64(offset)}
	}

	return offset, i, nil
}

// Token count of an instruction's operand list, used to walk past operands
// during symbol resolution. Branch and jump targets lex as mnemonic tokens,
// so resolution cannot skip to the next mnemonic without counting label
// references as extra instructions.
func operandCount(def InstructionDef, mnemonic string) int {
	switch def.Format {
	case FORMAT_R:
		return 5 // rd , rs1 , rs2
	case FORMAT_I:
		if def.Opcode == encoding.OP_LOAD {
			return 6 // rd , imm ( rs1 )
		}

		return 5 // rd , rs1 , imm
	case FORMAT_S:
		return 6 // rs2 , imm ( rs1 )
	case FORMAT_B:
		return 5 // rs1 , rs2 , label
	case FORMAT_U:
		return 3 // rd , imm
	case FORMAT_J:
		return 3 // rd , label
	case FORMAT_PSEUDO:
		if strings.ToLower(mnemonic) == "nop" {
			return 0
		}

		return 3 // rd , rs
	}

	return 0
}

// Binds every label to its instruction address. Addresses start at zero,
// advance four bytes per instruction and relocate at .org directives.
func (as *Assembler) ResolveSymbols() error {
	pc := uint32(0)

	for i := 0; i < len(as.Tokens); i++ {
		token := as.Tokens[i]

		switch token.Type {
		case TOKEN_LABEL:
			if _, ok := as.Symbols[token.Value]; ok {
				return &RedeclaredLabelError{token.Position, token.Value}
			}

			as.Symbols[token.Value] = pc

		case TOKEN_MNEMONIC:
			pc += 4

			if def, ok := LookupInstruction(token.Value); ok {
				count := operandCount(def, token.Value)

				for n := 0; n < count && i+1 < len(as.Tokens); n++ {
					kind := as.Tokens[i+1].Type

					if kind == TOKEN_LABEL || kind == TOKEN_DIRECTIVE {
						break
					}

					i++
				}
			} else {
				for i+1 < len(as.Tokens) {
					kind := as.Tokens[i+1].Type

					if kind == TOKEN_MNEMONIC ||
						kind == TOKEN_LABEL ||
						kind == TOKEN_DIRECTIVE {
						break
					}

					i++
				}
			}

		case TOKEN_DIRECTIVE:
			if token.Value != ".org" {
				continue
			}

			if i+1 < len(as.Tokens) && as.Tokens[i+1].Type == TOKEN_IMMEDIATE {
				imm, err := encoding.DecodeImmediate(as.Tokens[i+1].Value)

				if err != nil {
					return &InvalidLiteralError{as.Tokens[i+1].Position}
				}

				pc = uint32(imm)
				i++
			}
		}
	}

	return nil
}

// Encodes the token stream against the resolved symbols, one word per
// instruction in program order. When a symbol table is given it is filled
// with the source line offset of every instruction address and the name of
// every label.
func (as *Assembler) Encode(symtable *SymTable) error {
	pc := uint32(0)
	as.Words = as.Words[:0]

	for i := 0; i < len(as.Tokens); i++ {
		token := as.Tokens[i]

		if token.Type == TOKEN_LABEL {
			if symtable != nil {
				symtable.Labels[as.Symbols[token.Value]] = token.Value
			}

			continue
		}

		if token.Type == TOKEN_DIRECTIVE {
			if token.Value != ".org" {
				continue
			}

			if i+1 < len(as.Tokens) && as.Tokens[i+1].Type == TOKEN_IMMEDIATE {
				imm, err := encoding.DecodeImmediate(as.Tokens[i+1].Value)

				if err != nil {
					return &InvalidLiteralError{as.Tokens[i+1].Position}
				}

				pc = uint32(imm)
				i++
			}

			continue
		}

		if token.Type != TOKEN_MNEMONIC {
			continue
		}

		def, ok := LookupInstruction(token.Value)

		if !ok {
			return &UnknownInstructionError{token.Position, token.Value}
		}

		var word uint32
		var err error

		switch def.Format {
		case FORMAT_R: // add rd, rs1, rs2
			var rd, rs1, rs2 uint32

			if rd, i, err = as.nextRegister(i); err != nil {
				return err
			}

			if _, i, err = as.next(i); err != nil {
				return err
			}

			if rs1, i, err = as.nextRegister(i); err != nil {
				return err
			}

			if _, i, err = as.next(i); err != nil {
				return err
			}

			if rs2, i, err = as.nextRegister(i); err != nil {
				return err
			}

			word = encoding.Pack(def.Opcode, 0, 7) |
				encoding.Pack(rd, 7, 5) |
				encoding.Pack(def.Funct3, 12, 3) |
				encoding.Pack(rs1, 15, 5) |
				encoding.Pack(rs2, 20, 5) |
				encoding.Pack(def.Funct7, 25, 7)

		case FORMAT_I:
			var rd, rs1 uint32
			var imm int32

			if rd, i, err = as.nextRegister(i); err != nil {
				return err
			}

			if _, i, err = as.next(i); err != nil {
				return err
			}

			if def.Opcode == encoding.OP_LOAD { // lw rd, imm(rs1)
				if imm, i, err = as.nextImmediate(i); err != nil {
					return err
				}

				if _, i, err = as.next(i); err != nil {
					return err
				}

				if rs1, i, err = as.nextRegister(i); err != nil {
					return err
				}

				if _, i, err = as.next(i); err != nil {
					return err
				}
			} else { // addi rd, rs1, imm
				if rs1, i, err = as.nextRegister(i); err != nil {
					return err
				}

				if _, i, err = as.next(i); err != nil {
					return err
				}

				if imm, i, err = as.nextImmediate(i); err != nil {
					return err
				}
			}

			word = encoding.Pack(def.Opcode, 0, 7) |
				encoding.Pack(rd, 7, 5) |
				encoding.Pack(def.Funct3, 12, 3) |
				encoding.Pack(rs1, 15, 5) |
				encoding.Pack(uint32(imm), 20, 12)

		case FORMAT_S: // sw rs2, imm(rs1)
			var rs1, rs2 uint32
			var imm int32

			if rs2, i, err = as.nextRegister(i); err != nil {
				return err
			}

			if _, i, err = as.next(i); err != nil {
				return err
			}

			if imm, i, err = as.nextImmediate(i); err != nil {
				return err
			}

			if _, i, err = as.next(i); err != nil {
				return err
			}

			if rs1, i, err = as.nextRegister(i); err != nil {
				return err
			}

			if _, i, err = as.next(i); err != nil {
				return err
			}

			word = encoding.Pack(def.Opcode, 0, 7) |
				encoding.Pack(uint32(imm), 7, 5) |
				encoding.Pack(def.Funct3, 12, 3) |
				encoding.Pack(rs1, 15, 5) |
				encoding.Pack(rs2, 20, 5) |
				encoding.Pack(uint32(imm)>>5, 25, 7)

		case FORMAT_B: // beq rs1, rs2, label
			var rs1, rs2 uint32
			var offset int32

			if rs1, i, err = as.nextRegister(i); err != nil {
				return err
			}

			if _, i, err = as.next(i); err != nil {
				return err
			}

			if rs2, i, err = as.nextRegister(i); err != nil {
				return err
			}

			if _, i, err = as.next(i); err != nil {
				return err
			}

			if offset, i, err = as.nextOffset(i, pc); err != nil {
				return err
			}

			word = encoding.Pack(def.Opcode, 0, 7) |
				encoding.Pack(def.Funct3, 12, 3) |
				encoding.Pack(rs1, 15, 5) |
				encoding.Pack(rs2, 20, 5) |
				encoding.EncodeBranchOffset(offset)

		case FORMAT_U: // lui rd, imm
			var rd uint32
			var imm int32

			if rd, i, err = as.nextRegister(i); err != nil {
				return err
			}

			if _, i, err = as.next(i); err != nil {
				return err
			}

			if imm, i, err = as.nextImmediate(i); err != nil {
				return err
			}

			word = encoding.Pack(def.Opcode, 0, 7) |
				encoding.Pack(rd, 7, 5) |
				encoding.Pack(uint32(imm), 12, 20)

		case FORMAT_J: // jal rd, label
			var rd uint32
			var offset int32

			if rd, i, err = as.nextRegister(i); err != nil {
				return err
			}

			if _, i, err = as.next(i); err != nil {
				return err
			}

			if offset, i, err = as.nextOffset(i, pc); err != nil {
				return err
			}

			word = encoding.Pack(def.Opcode, 0, 7) |
				encoding.Pack(rd, 7, 5) |
				encoding.EncodeJumpOffset(offset)

		case FORMAT_PSEUDO:
			switch strings.ToLower(token.Value) {
			case "nop":
				word = WORD_NOP

			case "mv": // mv rd, rs -> addi rd, rs, 0
				var rd, rs1 uint32

				if rd, i, err = as.nextRegister(i); err != nil {
					return err
				}

				if _, i, err = as.next(i); err != nil {
					return err
				}

				if rs1, i, err = as.nextRegister(i); err != nil {
					return err
				}

				word = encoding.Pack(encoding.OP_IMM, 0, 7) |
					encoding.Pack(rd, 7, 5) |
					encoding.Pack(encoding.FUNCT3_ADD, 12, 3) |
					encoding.Pack(rs1, 15, 5) |
					encoding.Pack(0, 20, 12)

			case "not": // not rd, rs -> xori rd, rs, -1
				var rd, rs1 uint32

				if rd, i, err = as.nextRegister(i); err != nil {
					return err
				}

				if _, i, err = as.next(i); err != nil {
					return err
				}

				if rs1, i, err = as.nextRegister(i); err != nil {
					return err
				}

				word = encoding.Pack(encoding.OP_IMM, 0, 7) |
					encoding.Pack(rd, 7, 5) |
					encoding.Pack(encoding.FUNCT3_XOR, 12, 3) |
					encoding.Pack(rs1, 15, 5) |
					encoding.Pack(0xFFF, 20, 12)
			}
		}

		if symtable != nil {
			symtable.Symbols[pc] = token.Position.LineByte
		}

		as.Words = append(as.Words, word)
		pc += 4
	}

	return nil
}

// Assembles a complete source file, producing one word per instruction in
// program order
func AssembleSource(source string, symtable *SymTable) ([]uint32, error) {
	tokens, err := Tokenize(source)

	if err != nil {
		return nil, err
	}

	as := NewAssembler(tokens)

	if err := as.ResolveSymbols(); err != nil {
		return nil, err
	}

	if err := as.Encode(symtable); err != nil {
		return nil, err
	}

	return as.Words, nil
}
