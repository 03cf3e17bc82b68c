package emu

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMemoryAccess is the sentinel wrapped by every out-of-range access.
var ErrMemoryAccess = errors.New("memory access out of range")

// MemoryAccessError describes a fetch, load or store that does not fit in
// its memory.
type MemoryAccessError struct {
	Op    string
	Addr  uint32
	Size  int
	Limit int
}

func (e *MemoryAccessError) Error() string {
	return fmt.Sprintf("%s of %d bytes at 0x%08X exceeds memory size %d",
		e.Op, e.Size, e.Addr, e.Limit)
}

// Unwrap lets errors.Is match ErrMemoryAccess.
func (e *MemoryAccessError) Unwrap() error {
	return ErrMemoryAccess
}

func checkRange(op string, addr uint32, size, limit int) error {
	if uint64(addr)+uint64(size) > uint64(limit) {
		return &MemoryAccessError{Op: op, Addr: addr, Size: size, Limit: limit}
	}
	return nil
}

// AccessObserver is notified of every successful data access.
type AccessObserver interface {
	ObserveAccess(addr uint32, write bool)
}

// Memory is a byte-addressed data memory. Words are little-endian and
// need not be aligned.
type Memory struct {
	data     []byte
	observer AccessObserver
}

// NewMemory creates a zero-filled memory of size bytes.
func NewMemory(size int) *Memory {
	return &Memory{data: make([]byte, size)}
}

// NewMemoryFromImage creates a memory of size bytes whose low bytes are a
// copy of image.
func NewMemoryFromImage(image []byte, size int) (*Memory, error) {
	if len(image) > size {
		return nil, fmt.Errorf("data image of %d bytes: %w",
			len(image), &MemoryAccessError{Op: "load image", Size: len(image), Limit: size})
	}
	m := NewMemory(size)
	copy(m.data, image)
	return m, nil
}

// SetObserver installs an access observer. Pass nil to remove it.
func (m *Memory) SetObserver(o AccessObserver) {
	m.observer = o
}

// Size returns the memory size in bytes.
func (m *Memory) Size() int {
	return len(m.data)
}

// Bytes returns a copy of the memory contents.
func (m *Memory) Bytes() []byte {
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out
}

// Read8 reads a byte.
func (m *Memory) Read8(addr uint32) (byte, error) {
	if err := checkRange("load", addr, 1, len(m.data)); err != nil {
		return 0, err
	}
	return m.data[addr], nil
}

// Write8 writes a byte.
func (m *Memory) Write8(addr uint32, value byte) error {
	if err := checkRange("store", addr, 1, len(m.data)); err != nil {
		return err
	}
	m.data[addr] = value
	return nil
}

// LoadWord reads the little-endian word at addr.
func (m *Memory) LoadWord(addr uint32) (uint32, error) {
	if err := checkRange("load", addr, 4, len(m.data)); err != nil {
		return 0, err
	}
	m.observe(addr, false)
	return binary.LittleEndian.Uint32(m.data[addr:]), nil
}

// StoreWord writes value little-endian at addr.
func (m *Memory) StoreWord(addr uint32, value uint32) error {
	if err := checkRange("store", addr, 4, len(m.data)); err != nil {
		return err
	}
	m.observe(addr, true)
	binary.LittleEndian.PutUint32(m.data[addr:], value)
	return nil
}

func (m *Memory) observe(addr uint32, write bool) {
	if m.observer != nil {
		m.observer.ObserveAccess(addr, write)
	}
}

// InstructionMemory is a read-only byte-addressed instruction image.
type InstructionMemory struct {
	data  []byte
	order binary.ByteOrder
}

// NewInstructionMemory creates an instruction memory of size bytes holding
// image. Words are assembled with order; nil means little-endian.
func NewInstructionMemory(image []byte, size int, order binary.ByteOrder) (*InstructionMemory, error) {
	if len(image) > size {
		return nil, fmt.Errorf("instruction image of %d bytes: %w",
			len(image), &MemoryAccessError{Op: "load image", Size: len(image), Limit: size})
	}
	if order == nil {
		order = binary.LittleEndian
	}
	data := make([]byte, size)
	copy(data, image)
	return &InstructionMemory{data: data, order: order}, nil
}

// Size returns the memory size in bytes.
func (m *InstructionMemory) Size() int {
	return len(m.data)
}

// Fetch returns the instruction word at pc.
func (m *InstructionMemory) Fetch(pc uint32) (uint32, error) {
	if err := checkRange("fetch", pc, 4, len(m.data)); err != nil {
		return 0, err
	}
	return m.order.Uint32(m.data[pc:]), nil
}
