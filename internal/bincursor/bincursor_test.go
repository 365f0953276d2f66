package bincursor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadU32BigEndian(t *testing.T) {
	c := New([]byte{0x00, 0x00, 0x01, 0x2C}, true)
	v, err := c.ReadU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(300), v)
}

func TestReadU32LittleEndian(t *testing.T) {
	c := New([]byte{0x2C, 0x01, 0x00, 0x00}, false)
	v, err := c.ReadU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(300), v)
}

func TestSetEndianRestoresPrevious(t *testing.T) {
	c := New([]byte{0x00, 0x00, 0x00, 0x01}, true)
	prev := c.SetEndian(false)
	assert.True(t, prev)
	assert.False(t, c.BigEndian())
	c.SetEndian(prev)
	assert.True(t, c.BigEndian())
}

func TestReadCString(t *testing.T) {
	c := New([]byte("UnityFS\x00trailer"), true)
	s, err := c.ReadCString()
	require.NoError(t, err)
	assert.Equal(t, "UnityFS", s)
	assert.Equal(t, 8, c.Pos())
}

func TestReadCStringUnterminatedIsShortRead(t *testing.T) {
	c := New([]byte("no-null-here"), true)
	_, err := c.ReadCString()
	assert.ErrorIs(t, err, ErrShortRead)
}

func TestAlignIdentityWhenAligned(t *testing.T) {
	c := New(make([]byte, 16), true)
	require.NoError(t, c.Seek(8))
	require.NoError(t, c.Align(4))
	assert.Equal(t, 8, c.Pos())
}

func TestAlignAdvancesToBoundary(t *testing.T) {
	c := New(make([]byte, 16), true)
	require.NoError(t, c.Seek(5))
	require.NoError(t, c.Align(4))
	assert.Equal(t, 8, c.Pos())
}

func TestReadPastEndIsShortRead(t *testing.T) {
	c := New([]byte{0x01, 0x02}, true)
	_, err := c.ReadU32()
	assert.ErrorIs(t, err, ErrShortRead)
}

func TestReadLengthPrefixedStringRejectsOversize(t *testing.T) {
	c := New([]byte{0x00, 0x00, 0x10, 0x00}, true) // length 4096
	_, err := c.ReadLengthPrefixedString(1024)
	assert.Error(t, err)
}
