// Package loader reads instruction and data memory images.
//
// An image file holds one byte per line, written as eight binary digits.
// Blank lines and trailing carriage returns are ignored.
package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sarchlab/rvsim/log"
)

// File names expected in an input directory.
const (
	InstructionFile = "imem.txt"
	DataFile        = "dmem.txt"
)

// ErrMalformedImage is returned when an image line is not an 8-bit binary
// string.
var ErrMalformedImage = errors.New("malformed image line")

// Program holds the memory images of one test case.
type Program struct {
	// Name identifies the test case, taken from the input directory.
	Name string
	// Instructions is the instruction memory image.
	Instructions []byte
	// Data is the initial data memory image. It may be empty.
	Data []byte
}

// ParseImage reads an image from r.
func ParseImage(r io.Reader) ([]byte, error) {
	var image []byte

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(strings.TrimRight(scanner.Text(), "\r"))
		if line == "" {
			continue
		}

		b, err := parseByte(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		image = append(image, b)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	return image, nil
}

func parseByte(s string) (byte, error) {
	if len(s) != 8 {
		return 0, fmt.Errorf("%w: %q is not 8 digits", ErrMalformedImage, s)
	}

	var b byte
	for _, c := range s {
		switch c {
		case '0':
			b <<= 1
		case '1':
			b = b<<1 | 1
		default:
			return 0, fmt.Errorf("%w: %q has a non-binary digit", ErrMalformedImage, s)
		}
	}
	return b, nil
}

// LoadImage reads an image file.
func LoadImage(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	image, err := ParseImage(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return image, nil
}

// Load reads imem.txt and dmem.txt from dir. A missing dmem.txt yields an
// empty data image.
func Load(dir string) (*Program, error) {
	imem, err := LoadImage(filepath.Join(dir, InstructionFile))
	if err != nil {
		return nil, err
	}

	var dmem []byte
	dataPath := filepath.Join(dir, DataFile)
	if _, statErr := os.Stat(dataPath); statErr == nil {
		dmem, err = LoadImage(dataPath)
		if err != nil {
			return nil, err
		}
	} else {
		log.Warn(log.LoaderModule, "data image missing, using zeroed memory", "path", dataPath)
	}

	prog := &Program{
		Name:         TestcaseName(dir),
		Instructions: imem,
		Data:         dmem,
	}

	log.Debug(log.LoaderModule, "loaded program",
		"name", prog.Name, "imem_bytes", len(imem), "dmem_bytes", len(dmem))

	return prog, nil
}

// TestcaseName derives a result directory name from an input directory:
// its base name, or "default" when the path has none.
func TestcaseName(dir string) string {
	base := filepath.Base(filepath.Clean(dir))
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "default"
	}
	return base
}
