package appendbuffer

import "io"

var (
	_ io.Writer     = (*Buffer)(nil)
	_ io.Reader     = (*Buffer)(nil)
	_ io.ReaderFrom = (*Buffer)(nil)
)

// Write implements io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	return b.Append(p), nil
}

// Read implements io.Reader. It is destructive: copied bytes are trimmed
// off the head. io.EOF is returned when the buffer has no live bytes and
// len(p) is not zero.
func (b *Buffer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if b.length == 0 {
		return 0, io.EOF
	}
	n := b.Copy(0, p)
	b.MoveHead(n)
	return n, nil
}

// ReadFrom implements io.ReaderFrom through the direct-write pairing, so r
// reads straight into piece storage.
func (b *Buffer) ReadFrom(r io.Reader) (int64, error) {
	var total int64
	for {
		buf := b.WriteBuffer()
		n, err := r.Read(buf)
		if n > 0 {
			b.FinishWrite(buf, n)
			total += int64(n)
		} else if !b.aliasesTail(buf) {
			FreePiece(buf)
		}
		if err != nil {
			if err == io.EOF {
				return total, nil
			}
			return total, err
		}
	}
}
