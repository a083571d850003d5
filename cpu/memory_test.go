package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemory_Reset(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}
	mem[0x300] = 0xAA
	mem.Reset()

	assert.Equal(byte(0), mem[0x300])
	assert.Equal(Font[:], mem[FONT_START:FONT_START+len(Font)])
	assert.Equal(byte(0), mem[FONT_START-1])
	assert.Equal(byte(0), mem[FONT_START+len(Font)])
}

func TestMemory_Word(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}
	mem[0x200] = 0x12
	mem[0x201] = 0x34

	word, err := mem.Word(0x200)
	assert.NoError(err)
	assert.Equal(uint16(0x1234), word)

	_, err = mem.Word(MEMORY_SIZE - 2)
	assert.NoError(err)

	_, err = mem.Word(MEMORY_SIZE - 1)
	assert.ErrorIs(err, ErrAddress(0))
	assert.Equal(ErrAddress(MEMORY_SIZE), err)
}

func TestMemory_Bounds(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}

	table := [...]struct {
		addr int
		n    int
		ok   bool
	}{
		{0, 1, true},
		{0, MEMORY_SIZE, true},
		{MEMORY_SIZE - 1, 1, true},
		{MEMORY_SIZE, 0, true},
		{MEMORY_SIZE, 1, false},
		{MEMORY_SIZE - 2, 3, false},
		{-1, 1, false},
		{MEMORY_SIZE + 1, 0, false},
	}

	for _, entry := range table {
		_, err := mem.Read(entry.addr, entry.n)
		if entry.ok {
			assert.NoError(err, "%v+%v", entry.addr, entry.n)
		} else {
			var ea ErrAddress
			assert.ErrorAs(err, &ea, "%v+%v", entry.addr, entry.n)
		}
	}
}

func TestMemory_Write(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}

	err := mem.Write(0x300, []byte{1, 2, 3})
	assert.NoError(err)
	assert.Equal([]byte{1, 2, 3}, mem[0x300:0x303])

	// Partially out of range writes nothing.
	err = mem.Write(MEMORY_SIZE-2, []byte{4, 5, 6})
	assert.ErrorIs(err, ErrAddress(0))
	assert.Equal([]byte{0, 0}, mem[MEMORY_SIZE-2:])

	err = mem.SetByte(MEMORY_SIZE-1, 7)
	assert.NoError(err)
	value, err := mem.Byte(MEMORY_SIZE - 1)
	assert.NoError(err)
	assert.Equal(byte(7), value)

	err = mem.SetByte(MEMORY_SIZE, 7)
	assert.Error(err)
	_, err = mem.Byte(-1)
	assert.Error(err)
}
