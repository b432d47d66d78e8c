package printer

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// ChunkSize is the largest single write sent to a printer; small Bluetooth
// SPP buffers drop data beyond this.
const ChunkSize = 512

var textEncoder = encoding.ReplaceUnsupported(charmap.CodePage437.NewEncoder())

// EncodeText converts UTF-8 text to code page 437. Characters without a
// CP437 glyph print as '?'.
func EncodeText(text string) []byte {
	out, err := textEncoder.Bytes([]byte(text))
	if err != nil {
		return []byte(text)
	}
	// ReplaceUnsupported substitutes ASCII SUB, which most printers render as a box
	return bytes.ReplaceAll(out, []byte{0x1A}, []byte{'?'})
}

// writeChunked writes data in pieces of at most size bytes, pausing between
// pieces when pause is non-zero.
func writeChunked(w io.Writer, data []byte, size int, pause time.Duration) error {
	if size <= 0 {
		size = ChunkSize
	}

	for offset := 0; offset < len(data); offset += size {
		end := offset + size
		if end > len(data) {
			end = len(data)
		}

		n, err := w.Write(data[offset:end])
		if err != nil {
			return fmt.Errorf("write failed at byte %d: %w", offset, err)
		}
		if n != end-offset {
			return fmt.Errorf("short write at byte %d: %d of %d", offset, n, end-offset)
		}

		if pause > 0 && end < len(data) {
			time.Sleep(pause)
		}
	}

	return nil
}
