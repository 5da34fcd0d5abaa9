package player

import (
	"bufio"
	"io"
	"strings"
)

// icyReader strips SHOUTcast/Icecast metadata blocks from a stream body.
// Every metaint audio bytes the server inserts one length byte (x16) and
// that many bytes of "StreamTitle='...';" text.
type icyReader struct {
	r         *bufio.Reader
	closer    io.Closer
	metaint   int
	remaining int
	onTitle   func(string)
}

func newICYReader(body io.ReadCloser, metaint int, onTitle func(string)) *icyReader {
	return &icyReader{
		r:         bufio.NewReader(body),
		closer:    body,
		metaint:   metaint,
		remaining: metaint,
		onTitle:   onTitle,
	}
}

func (ir *icyReader) Read(p []byte) (int, error) {
	if ir.metaint <= 0 {
		return ir.r.Read(p)
	}
	if ir.remaining == 0 {
		if err := ir.readMeta(); err != nil {
			return 0, err
		}
		ir.remaining = ir.metaint
	}
	if len(p) > ir.remaining {
		p = p[:ir.remaining]
	}
	n, err := ir.r.Read(p)
	ir.remaining -= n
	return n, err
}

func (ir *icyReader) Close() error {
	return ir.closer.Close()
}

func (ir *icyReader) readMeta() error {
	lenByte, err := ir.r.ReadByte()
	if err != nil {
		return err
	}
	size := int(lenByte) * 16
	if size == 0 {
		return nil
	}
	block := make([]byte, size)
	if _, err := io.ReadFull(ir.r, block); err != nil {
		return err
	}
	if title, ok := parseStreamTitle(string(block)); ok && ir.onTitle != nil {
		ir.onTitle(title)
	}
	return nil
}

// parseStreamTitle extracts the StreamTitle value from an ICY metadata block.
func parseStreamTitle(block string) (string, bool) {
	const key = "StreamTitle='"
	start := strings.Index(block, key)
	if start < 0 {
		return "", false
	}
	start += len(key)
	end := strings.Index(block[start:], "';")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(block[start : start+end]), true
}
