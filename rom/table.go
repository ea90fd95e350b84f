package rom

import (
	"bufio"
	"io"
	"io/fs"
	"log"
	"strconv"
	"strings"

	"github.com/ezrec/shapedet/fixed"
)

const (
	COE_RADIX_KEY  = "memory_initialization_radix"
	COE_VECTOR_KEY = "memory_initialization_vector"
)

// parseWord converts a 16-bit two's complement hex word to a Value.
func parseWord(word string) (value fixed.Value, err error) {
	raw, err := strconv.ParseUint(word, 16, 16)
	if err != nil {
		err = ErrHexSyntax
		return
	}
	value = fixed.Value(int16(uint16(raw)))
	return
}

// ReadHex reads a table with one 4 digit hex word per line.
// Blank lines are ignored.
func ReadHex(r io.Reader) (values []fixed.Value, err error) {
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		word := strings.TrimSpace(line)
		if len(word) == 0 {
			continue
		}
		var value fixed.Value
		value, err = parseWord(word)
		if err != nil {
			err = &ErrLine{LineNo: lineno, Line: line, Err: err}
			return
		}
		values = append(values, value)
	}

	err = scanner.Err()
	return
}

// ReadCoe reads a Vivado memory initialization table:
//
//	memory_initialization_radix=16;
//	memory_initialization_vector=
//	0001,
//	fffe;
func ReadCoe(r io.Reader) (values []fixed.Value, err error) {
	scanner := bufio.NewScanner(r)
	lineno := 0
	radix := 0
	vector := false
	ended := false
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		text := strings.TrimSpace(line)
		if len(text) == 0 {
			continue
		}
		if strings.HasPrefix(text, ";") {
			// A bare ';' closes an open vector, otherwise it starts a comment.
			if vector && !ended {
				ended = true
			}
			continue
		}
		if ended {
			err = &ErrLine{LineNo: lineno, Line: line, Err: ErrCoeSyntax}
			return
		}

		if !vector {
			key, value, found := strings.Cut(text, "=")
			if !found {
				err = &ErrLine{LineNo: lineno, Line: line, Err: ErrCoeSyntax}
				return
			}
			key = strings.TrimSpace(key)
			value = strings.TrimSpace(value)
			switch key {
			case COE_RADIX_KEY:
				radix, err = strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(value, ";")))
				if err != nil || radix != 16 {
					err = &ErrLine{LineNo: lineno, Line: line, Err: ErrCoeSyntax}
					return
				}
				continue
			case COE_VECTOR_KEY:
				if radix != 16 {
					err = &ErrLine{LineNo: lineno, Line: line, Err: ErrCoeSyntax}
					return
				}
				vector = true
				text = value
			default:
				err = &ErrLine{LineNo: lineno, Line: line, Err: ErrCoeSyntax}
				return
			}
		}

		text, ended = strings.CutSuffix(text, ";")
		for word := range strings.SplitSeq(text, ",") {
			word = strings.TrimSpace(word)
			if len(word) == 0 {
				continue
			}
			var value fixed.Value
			value, err = parseWord(word)
			if err != nil {
				err = &ErrLine{LineNo: lineno, Line: line, Err: err}
				return
			}
			values = append(values, value)
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if !ended {
		err = &ErrLine{LineNo: lineno, Err: ErrCoeSyntax}
	}

	return
}

// Loader reads the layer tables from a directory of .hex or .coe files,
// named <layer>_weights and <layer>_biases.
type Loader struct {
	Verbose bool // If set, logs each table as it is read.
}

// readTable reads a single table, preferring the .hex form.
func (ld *Loader) readTable(filesys fs.FS, name string) (values []fixed.Value, err error) {
	readers := []struct {
		ext  string
		read func(r io.Reader) ([]fixed.Value, error)
	}{
		{ext: ".hex", read: ReadHex},
		{ext: ".coe", read: ReadCoe},
	}

	for _, reader := range readers {
		filename := name + reader.ext
		var inf fs.File
		inf, err = filesys.Open(filename)
		if err != nil {
			continue
		}
		defer inf.Close()

		values, err = reader.read(inf)
		if err != nil {
			err = &ErrTable{Name: filename, Err: err}
			return
		}
		if ld.Verbose {
			log.Printf("rom: %v: %d values", filename, len(values))
		}
		return
	}

	err = &ErrTable{Name: name, Err: ErrTableMiss}
	return
}

// Load reads all layer tables from the file system.
func (ld *Loader) Load(filesys fs.FS) (rom *Rom, err error) {
	layers := make([]*Layer, LAYER_COUNT)
	for n, shape := range Shapes {
		var weights, biases []fixed.Value
		weights, err = ld.readTable(filesys, shape.Name+"_weights")
		if err != nil {
			return
		}
		biases, err = ld.readTable(filesys, shape.Name+"_biases")
		if err != nil {
			return
		}
		layers[n], err = NewLayer(shape, weights, biases)
		if err != nil {
			return
		}
	}

	return New(layers...)
}

// Load reads all layer tables from the file system.
func Load(filesys fs.FS) (rom *Rom, err error) {
	ld := &Loader{}
	return ld.Load(filesys)
}
