package appendbuffer_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	. "trpc.group/trpc-go/streambuf/appendbuffer"
)

func TestIteratorEmpty(t *testing.T) {
	b := New()
	it := b.Iterator()
	require.True(t, it.End())
	require.Equal(t, 0, it.Pos())

	// forwarding an exhausted iterator is a no-op
	it.Forward(10)
	require.True(t, it.End())
}

func TestIteratorWalksEveryByte(t *testing.T) {
	b := New()
	data := make([]byte, 2*PieceDataCap+31)
	for i := range data {
		data[i] = byte(i % 251)
	}
	b.Append(data)

	it := b.Iterator()
	for i := range data {
		require.False(t, it.End())
		require.Equal(t, i, it.Pos())
		require.Equal(t, data[i], it.Byte())
		it.Forward(1)
	}
	require.True(t, it.End())
	require.Equal(t, len(data), it.Pos())
}

func TestIteratorFastAndSlowForward(t *testing.T) {
	b := New()
	data := make([]byte, 3*PieceDataCap)
	for i := range data {
		data[i] = byte(i)
	}
	b.Append(data)

	it := b.Iterator()
	it.Forward(10) // inside the first piece
	require.Equal(t, 10, it.Pos())
	require.Equal(t, data[10], it.Byte())

	it.Forward(PieceDataCap) // crosses a boundary
	require.Equal(t, 10+PieceDataCap, it.Pos())
	require.Equal(t, data[10+PieceDataCap], it.Byte())

	it.Forward(2 * PieceDataCap) // past the end
	require.True(t, it.End())
	require.Equal(t, len(data), it.Pos())
}

func TestIteratorRespectsHeadTrim(t *testing.T) {
	b := New()
	b.Append([]byte("0123456789"))
	require.True(t, b.MoveHead(4))

	it := b.Iterator()
	require.Equal(t, byte('4'), it.Byte())
	require.Equal(t, 0, it.Pos())

	it.Forward(5)
	require.Equal(t, byte('9'), it.Byte())
	it.Forward(1)
	require.True(t, it.End())
	require.Equal(t, 6, it.Pos())
}

func TestIteratorForwardPastEndClamps(t *testing.T) {
	b := New()
	b.Append([]byte("abcdef"))
	it := b.Iterator()
	it.Forward(100)
	require.True(t, it.End())
	require.Equal(t, 6, it.Pos())
}

func TestIteratorExactBoundaryStopsAtNextPiece(t *testing.T) {
	b := New()
	b.Append(make([]byte, PieceDataCap))
	b.Append([]byte{0xAB})

	it := b.Iterator()
	it.Forward(PieceDataCap)
	require.False(t, it.End())
	require.Equal(t, PieceDataCap, it.Pos())
	require.Equal(t, byte(0xAB), it.Byte())
}
