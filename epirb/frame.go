package epirb

// COSPAS-SARSAT burst sizes
const (
	ShortFrameBits = 112
	LongFrameBits  = 144

	// BufferLen holds a long burst: 16 payload bytes followed by 2 parity bytes.
	BufferLen  = LongFrameBits / 8
	payloadLen = 16
)

// Buffer is a byte-packed frame, most significant bit first.
type Buffer [BufferLen]byte

// RawFrame is one candidate burst exactly as it came off the demodulator.
type RawFrame struct {
	bits []byte
}

// NewRawFrame copies hard bits into a frame. Any non-zero element is a 1.
func NewRawFrame(bits []byte) RawFrame {
	f := RawFrame{bits: make([]byte, len(bits))}
	for i, b := range bits {
		if b != 0 {
			f.bits[i] = 1
		}
	}
	return f
}

// HardDecide slices soft symbols into hard bits. Symbols at or above the
// threshold become 1.
func HardDecide(soft []byte, threshold byte) []byte {
	bits := make([]byte, len(soft))
	for i, s := range soft {
		if s >= threshold {
			bits[i] = 1
		}
	}
	return bits
}

// Len is the observed burst length in bits.
func (f RawFrame) Len() int {
	return len(f.bits)
}

// Bit returns bit i of the burst; out of range bits read as 0.
func (f RawFrame) Bit(i int) bool {
	if i < 0 || i >= len(f.bits) {
		return false
	}
	return f.bits[i] == 1
}

// Pack packs the burst MSB first into a Buffer. Bursts shorter than a
// short frame cannot be decoded and report false.
func (f RawFrame) Pack() (Buffer, bool) {
	var buf Buffer
	if len(f.bits) < ShortFrameBits {
		return buf, false
	}

	n := min(len(f.bits)/8, BufferLen)
	for i := 0; i < n; i++ {
		var v byte
		for bit := 0; bit < 8; bit++ {
			if f.bits[i*8+bit] == 1 {
				v |= 1 << (7 - bit)
			}
		}
		buf[i] = v
	}
	return buf, true
}

// Unpack is the inverse of Pack for the first n bits of a buffer.
func Unpack(buf Buffer, n int) []byte {
	n = min(n, BufferLen*8)
	bits := make([]byte, n)
	for i := 0; i < n; i++ {
		bits[i] = (buf[i/8] >> (7 - i%8)) & 1
	}
	return bits
}
