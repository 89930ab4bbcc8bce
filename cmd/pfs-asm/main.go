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

package main

import (
	"bytes"
	"encoding/gob"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/AyoubElken/PFS-CPU/pkg/assembler"
	"github.com/AyoubElken/PFS-CPU/pkg/encoding"
)

var helpvar bool
var debugvar bool
var outvar string

const usage = "pfs-asm [-debug] [-out outfile] filename"

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(
		&debugvar, "debug", false,
		"Specifies whether to generate debugging information as a symbol "+
			"table. The table will use the output filename with extension "+
			"'.pfsdb'",
	)
	flag.StringVar(
		&outvar, "out", "",
		"Specifies a precise name for the output file, "+
			"overriding the default means of determining it",
	)
	flag.Parse()
}

func pfs_asm() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	var infile string
	var source []byte

	if stat, _ := os.Stdin.Stat(); stat.Mode()&os.ModeCharDevice == 0 {
		var err error
		source, err = io.ReadAll(os.Stdin)

		if err != nil {
			log.Println(errors.Wrap(err, "failed to read input"))
			return 1
		}

		log.SetPrefix("\033[1m<stdin>:\033[0m")

		if outvar == "" {
			outvar = "out.hex"
		}
	} else {
		if len(args) != 1 {
			log.Println(usage)
			return 1
		}

		infile = args[0]
		filename := filepath.Base(infile)

		if stat, err := os.Stat(infile); err != nil {
			log.Println(err)
			return 1
		} else {
			if stat.IsDir() {
				log.Printf("%s is not a valid assembly file", filename)
				return 1
			}
		}

		var err error
		source, err = os.ReadFile(infile)

		if err != nil {
			log.Println(errors.Wrap(err, "failed to read input"))
			return 1
		}

		log.SetPrefix(fmt.Sprintf("\033[1m%s:\033[0m", filename))

		if outvar == "" {
			outvar = infile + ".hex"
		}
	}

	var symtable assembler.SymTable
	var symtarget *assembler.SymTable = nil

	if debugvar {
		if infile != "" {
			var err error
			if symtable.Source, err = filepath.Abs(infile); err != nil {
				log.Println(err)
				symtable.Source = ""
			}
		}
		symtable.Symbols = make(map[uint32]int64)
		symtable.Labels = make(map[uint32]string)
		symtarget = &symtable
	}

	printError := func(err error) {
		if tokenErr, ok := err.(assembler.TokenError); ok {
			cursor := tokenErr.GetPosition()

			line := string(source[cursor.LineByte:])

			if end := strings.IndexByte(line, '\n'); end != -1 {
				line = line[:end]
			}

			underlinefmt := fmt.Sprintf(
				"%% %ds%s",
				int(cursor.Byte-cursor.LineByte)+1,
				strings.Repeat("~", int(cursor.Size)-1),
			)

			log.Printf(
				"%s\n%s\n\033[31m%s\033[0m",
				err,
				line,
				fmt.Sprintf(underlinefmt, "^"),
			)
		} else {
			log.Println(err)
		}
	}

	tokens, err := assembler.Tokenize(string(source))

	if err != nil {
		printError(err)
		return 1
	}

	as := assembler.NewAssembler(tokens)

	fmt.Println("Pass 1: Symbol Resolution...")

	if err := as.ResolveSymbols(); err != nil {
		printError(err)
		return 1
	}

	fmt.Println("Pass 2: Binary Generation...")

	if err := as.Encode(symtarget); err != nil {
		printError(err)
		return 1
	}

	{
		buffer := new(bytes.Buffer)

		if err := encoding.WriteHexWords(buffer, as.Words); err != nil {
			log.Println(errors.Wrap(err, "failed to write output file"))
			return 1
		}

		if err := os.WriteFile(outvar, buffer.Bytes(), 0666); err != nil {
			log.Println(errors.Wrap(err, "failed to write output file"))
			return 1
		}

		fmt.Printf("Hex file written to %s\n", outvar)
	}

	if debugvar {
		filename := filepath.Dir(outvar) + "/" + strings.ReplaceAll(
			filepath.Base(outvar), filepath.Ext(outvar), ".pfsdb",
		)

		if file, err := os.OpenFile(
			filename, os.O_WRONLY|os.O_CREATE, 0666,
		); err == nil {
			if err := gob.NewEncoder(file).Encode(symtable); err != nil {
				log.Println(errors.Wrap(err, "failed to write symbol table"))
				return 1
			}

			file.Close()
		} else {
			log.Println(errors.Wrap(err, "failed to create symbol table"))
			return 1
		}
	}

	fmt.Println("Assembly Complete.")

	return 0
}

func main() {
	os.Exit(pfs_asm())
}
