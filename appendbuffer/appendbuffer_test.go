package appendbuffer_test

import (
	stdbytes "bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	. "trpc.group/trpc-go/streambuf/appendbuffer"
)

func TestAppendAndCopy(t *testing.T) {
	b := New()
	msg := []byte("testing\x00")
	require.Equal(t, 8, b.Append(msg))
	require.Equal(t, 8, b.Len())

	out := make([]byte, 20)
	require.Equal(t, 8, b.Copy(0, out))
	require.Equal(t, msg, out[:8])
}

func TestAppendCrossesPieces(t *testing.T) {
	b := New()
	data := make([]byte, 3*PieceDataCap+7)
	for i := range data {
		data[i] = byte(i)
	}
	require.Equal(t, len(data), b.Append(data))
	require.Equal(t, len(data), b.Len())

	out := make([]byte, len(data))
	require.Equal(t, len(data), b.Copy(0, out))
	require.Equal(t, data, out)

	// offset reads land in the right piece
	out = make([]byte, 10)
	require.Equal(t, 10, b.Copy(PieceDataCap+1, out))
	require.Equal(t, data[PieceDataCap+1:PieceDataCap+11], out)
}

func TestCopyPastEnd(t *testing.T) {
	b := New()
	b.Append([]byte("abc"))
	out := make([]byte, 10)
	require.Equal(t, 1, b.Copy(2, out))
	require.Equal(t, byte('c'), out[0])
	require.Equal(t, 0, b.Copy(3, out))
	require.Equal(t, 0, b.Copy(100, out))
}

func TestMoveHeadAcrossPieces(t *testing.T) {
	b := New()
	for i := 0; i < 10000; i++ {
		require.Equal(t, 1, b.Append([]byte{byte(i)}))
	}
	require.True(t, b.MoveHead(9001))
	require.Equal(t, 999, b.Len())

	k := 0
	for it := b.Iterator(); !it.End(); it.Forward(1) {
		require.Equal(t, byte(k+9001), it.Byte())
		k++
	}
	require.Equal(t, 999, k)
}

func TestMoveHeadExact(t *testing.T) {
	b := New()
	b.Append([]byte("testing\x00"))
	require.True(t, b.MoveHead(8))
	require.Equal(t, 0, b.Len())
	it := b.Iterator()
	require.True(t, it.End())
}

func TestMoveHeadOverflowIsDestructive(t *testing.T) {
	b := New()
	b.Append([]byte("testing\x00"))
	require.False(t, b.MoveHead(200))
	require.Equal(t, 0, b.Len())
	require.Equal(t, 0, b.Copy(0, make([]byte, 8)))
}

func TestMoveHeadKeepsSurvivingBytes(t *testing.T) {
	b := New()
	b.Append([]byte("hello world"))
	require.True(t, b.MoveHead(6))
	out := make([]byte, 16)
	require.Equal(t, 5, b.Copy(0, out))
	require.Equal(t, "world", string(out[:5]))

	// trims accumulate
	require.True(t, b.MoveHead(4))
	require.Equal(t, 1, b.Len())
	require.Equal(t, 1, b.Copy(0, out))
	require.Equal(t, byte('d'), out[0])
}

func TestLengthAccounting(t *testing.T) {
	b := New()
	var appended, trimmed int
	for i := 0; i < 57; i++ {
		appended += b.Append(make([]byte, 31))
		if i%5 == 0 {
			require.True(t, b.MoveHead(11))
			trimmed += 11
		}
	}
	require.Equal(t, appended-trimmed, b.Len())
}

func TestAppendPieceHandOff(t *testing.T) {
	b := New()
	p := NewPiece()
	require.Equal(t, PieceDataCap, len(p))
	copy(p, "testing")
	require.True(t, b.AppendPiece(p, 7))
	require.Equal(t, 7, b.Len())

	out := make([]byte, 7)
	require.Equal(t, 7, b.Copy(0, out))
	require.Equal(t, "testing", string(out))

	// the last piece now has a free tail, a second hand-off must fail and
	// ownership stays with the caller
	q := NewPiece()
	copy(q, "testing")
	require.False(t, b.AppendPiece(q, 7))
	require.Equal(t, 7, b.Len())
	FreePiece(q)

	b.Reset()
}

func TestEndFreeAndMoveEnd(t *testing.T) {
	b := New()
	require.Nil(t, b.EndFree())
	require.False(t, b.MoveEnd(1))

	b.Append([]byte("abc"))
	free := b.EndFree()
	require.Equal(t, PieceDataCap-3, len(free))

	copy(free, "def")
	require.False(t, b.MoveEnd(len(free)+1))
	require.True(t, b.MoveEnd(3))
	require.Equal(t, 6, b.Len())

	out := make([]byte, 6)
	require.Equal(t, 6, b.Copy(0, out))
	require.Equal(t, "abcdef", string(out))

	// a full last piece has no free tail
	b.Reset()
	b.Append(make([]byte, PieceDataCap))
	require.Nil(t, b.EndFree())
}

func TestWriteBufferPairing(t *testing.T) {
	b := New()

	// empty buffer: a detached piece is handed out
	buf := b.WriteBuffer()
	require.Equal(t, PieceDataCap, len(buf))
	n := copy(buf, "first")
	require.True(t, b.FinishWrite(buf, n))
	require.Equal(t, 5, b.Len())

	// non-full tail: the free span of the last piece is handed out
	buf = b.WriteBuffer()
	require.Equal(t, PieceDataCap-5, len(buf))
	n = copy(buf, "second")
	require.True(t, b.FinishWrite(buf, n))
	require.Equal(t, 11, b.Len())

	out := make([]byte, 11)
	require.Equal(t, 11, b.Copy(0, out))
	require.Equal(t, "firstsecond", string(out))
}

func TestClone(t *testing.T) {
	b := New()
	data := make([]byte, 2*PieceDataCap+13)
	for i := range data {
		data[i] = byte(i * 7)
	}
	b.Append(data)
	require.True(t, b.MoveHead(5))

	c := b.Clone()
	require.Equal(t, b.Len(), c.Len())

	bi, ci := b.Iterator(), c.Iterator()
	for !bi.End() {
		require.False(t, ci.End())
		require.Equal(t, bi.Byte(), ci.Byte())
		bi.Forward(1)
		ci.Forward(1)
	}
	require.True(t, ci.End())

	// clone is deep: mutating the copy leaves the original alone
	c.Append([]byte("x"))
	require.Equal(t, b.Len()+1, c.Len())
}

func TestCloneEmpty(t *testing.T) {
	b := New()
	c := b.Clone()
	require.Equal(t, 0, c.Len())
	it := c.Iterator()
	require.True(t, it.End())
}

func TestMove(t *testing.T) {
	src := New()
	src.Append([]byte("payload"))
	dst := New()
	dst.Append([]byte("stale"))

	Move(dst, src)
	require.Equal(t, 0, src.Len())
	require.Equal(t, 7, dst.Len())

	out := make([]byte, 7)
	require.Equal(t, 7, dst.Copy(0, out))
	require.Equal(t, "payload", string(out))

	// the drained source is reusable
	require.Equal(t, 3, src.Append([]byte("abc")))
	require.Equal(t, 3, src.Len())
}

func TestReset(t *testing.T) {
	b := New()
	b.Append(make([]byte, 5*PieceDataCap))
	b.Reset()
	require.Equal(t, 0, b.Len())
	require.Nil(t, b.EndFree())
	require.Equal(t, 2, b.Append([]byte("ok")))
}

func TestZeroValue(t *testing.T) {
	var b Buffer
	require.Equal(t, 0, b.Len())
	require.True(t, b.MoveHead(0))
	require.Equal(t, 3, b.Append([]byte("abc")))
	require.Equal(t, 3, b.Len())
}

func TestReadWrite(t *testing.T) {
	b := New()
	n, err := b.Write([]byte("stream"))
	require.NoError(t, err)
	require.Equal(t, 6, n)

	out := make([]byte, 4)
	n, err = b.Read(out)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, "stre", string(out))
	require.Equal(t, 2, b.Len())

	n, err = b.Read(out)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, "am", string(out[:2]))

	_, err = b.Read(out)
	require.Equal(t, io.EOF, err)
}

func TestReadFrom(t *testing.T) {
	b := New()
	payload := strings.Repeat("0123456789", 100)
	n, err := b.ReadFrom(strings.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, int64(len(payload)), n)
	require.Equal(t, len(payload), b.Len())

	var got stdbytes.Buffer
	_, err = got.ReadFrom(b)
	require.NoError(t, err)
	require.Equal(t, payload, got.String())
}
