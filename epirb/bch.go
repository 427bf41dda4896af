package epirb

import (
	"errors"
	"fmt"
	"math/bits"

	"beaconmap/beacon"
)

// generator is x^16 + x^12 + x^5 + 1. Every single-bit error in the 128
// payload bits leaves a distinct, non-zero syndrome.
const generator uint32 = 0x11021

// UnknownErrorCount marks a frame whose errors could not be located.
const UnknownErrorCount = 255

const sealWidth = 16

// CorrectedFrame is a buffer after at most one bit flip.
type CorrectedFrame struct {
	Data       Buffer
	Syndrome   uint16 // syndrome of the buffer as received
	Status     beacon.PacketStatus
	ErrorCount uint8
}

// Syndrome runs the payload through the LFSR and folds in the parity bytes.
// A zero syndrome means the buffer is a codeword.
func Syndrome(b Buffer) uint16 {
	var reg uint32
	for i := 0; i < payloadLen; i++ {
		for bit := 7; bit >= 0; bit-- {
			reg <<= 1
			if b[i]&(1<<bit) != 0 {
				reg |= 1
			}
			if reg&0x10000 != 0 {
				reg ^= generator
			}
		}
	}
	reg ^= uint32(b[16])<<8 | uint32(b[17])
	return uint16(reg & 0xFFFF)
}

// Correct checks a received buffer and, when needed, searches the payload
// for the first single bit flip that yields a zero syndrome. The received
// buffer is never modified.
func Correct(received Buffer) CorrectedFrame {
	syn := Syndrome(received)
	if syn == 0 {
		return CorrectedFrame{Data: received, Status: beacon.StatusValid}
	}

	for i := 0; i < payloadLen; i++ {
		for bit := 0; bit < 8; bit++ {
			trial := received
			trial[i] ^= 1 << bit
			if Syndrome(trial) == 0 {
				return CorrectedFrame{
					Data:       trial,
					Syndrome:   syn,
					Status:     beacon.StatusCorrected,
					ErrorCount: bitErrors(received, trial),
				}
			}
		}
	}

	return CorrectedFrame{
		Data:       received,
		Syndrome:   syn,
		Status:     beacon.StatusError,
		ErrorCount: UnknownErrorCount,
	}
}

func bitErrors(a, b Buffer) uint8 {
	n := 0
	for i := range a {
		n += bits.OnesCount8(a[i] ^ b[i])
	}
	return uint8(n)
}

// Seal fills the two parity bytes so the buffer has a zero syndrome.
func Seal(b Buffer) Buffer {
	b[16], b[17] = 0, 0
	syn := Syndrome(b)
	b[16] = byte(syn >> 8)
	b[17] = byte(syn)
	return b
}

// SealAt rewrites the 16 frame bits starting at bit first so the buffer has
// a zero syndrome without touching the parity bytes. Short bursts end before
// the parity bytes, so their check bits have to live inside the payload.
func SealAt(b Buffer, first int) (Buffer, error) {
	if first < 0 || first+sealWidth > payloadLen*8 {
		return b, fmt.Errorf("seal window %d..%d outside payload", first, first+sealWidth-1)
	}
	window := make([]int, sealWidth)
	for j := range window {
		window[j] = first + j
	}
	return SealBits(b, window)
}

// SealBits is SealAt over an arbitrary set of 16 payload bits. It fails
// when the syndromes of those bits do not span every syndrome.
func SealBits(b Buffer, positions []int) (Buffer, error) {
	if len(positions) != sealWidth {
		return b, fmt.Errorf("seal needs %d bits, got %d", sealWidth, len(positions))
	}
	for _, p := range positions {
		if p < 0 || p >= payloadLen*8 {
			return b, fmt.Errorf("seal bit %d outside payload", p)
		}
		setBit(&b, p, false)
	}
	target := Syndrome(b)

	// Row-reduce the syndromes of the chosen bits, remembering which of
	// them make up each basis vector.
	var basis [16]struct{ v, mask uint16 }
	for j, p := range positions {
		var unit Buffer
		setBit(&unit, p, true)
		v, mask := Syndrome(unit), uint16(1)<<j
		for k := 15; k >= 0 && v != 0; k-- {
			if v&(1<<k) == 0 {
				continue
			}
			if basis[k].v == 0 {
				basis[k].v, basis[k].mask = v, mask
				break
			}
			v ^= basis[k].v
			mask ^= basis[k].mask
		}
	}

	var flips uint16
	for k := 15; k >= 0; k-- {
		if target&(1<<k) == 0 {
			continue
		}
		if basis[k].v == 0 {
			return b, errors.New("seal bits cannot cancel syndrome")
		}
		target ^= basis[k].v
		flips ^= basis[k].mask
	}

	for j, p := range positions {
		if flips&(1<<j) != 0 {
			setBit(&b, p, true)
		}
	}
	return b, nil
}

func setBit(b *Buffer, i int, on bool) {
	mask := byte(1) << (7 - i%8)
	if on {
		b[i/8] |= mask
	} else {
		b[i/8] &^= mask
	}
}
