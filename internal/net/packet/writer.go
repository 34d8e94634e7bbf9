package packet

import (
	"encoding/binary"

	"golang.org/x/text/encoding/traditionalchinese"
)

// Writer builds a server packet. All multi-byte writes are little-endian and
// Bytes() pads the result to a 4-byte boundary.
type Writer struct {
	buf []byte
}

func NewWriter(opcode byte) *Writer {
	w := &Writer{buf: make([]byte, 0, 64)}
	w.WriteC(opcode)
	return w
}

// WriteC writes 1 byte.
func (w *Writer) WriteC(v byte) {
	w.buf = append(w.buf, v)
}

// WriteH writes 2 bytes.
func (w *Writer) WriteH(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// WriteD writes 4 bytes.
func (w *Writer) WriteD(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// WriteQ writes 8 bytes (object guids).
func (w *Writer) WriteQ(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// WriteS writes a null-terminated string in the client charset (Big5).
func (w *Writer) WriteS(s string) {
	if s != "" {
		encoded, err := traditionalchinese.Big5.NewEncoder().Bytes([]byte(s))
		if err != nil {
			// Unencodable text goes out raw; ASCII is identical in both charsets.
			encoded = []byte(s)
		}
		w.buf = append(w.buf, encoded...)
	}
	w.buf = append(w.buf, 0)
}

// Bytes returns the packet padded to a 4-byte boundary.
func (w *Writer) Bytes() []byte {
	for len(w.buf)%4 != 0 {
		w.buf = append(w.buf, 0)
	}
	return w.buf
}

// Len returns the current unpadded length.
func (w *Writer) Len() int {
	return len(w.buf)
}
