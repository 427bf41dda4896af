package kiss

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// KISS protocol constants
const (
	FEND  byte = 0xC0 // Frame End
	FESC  byte = 0xDB // Frame Escape
	TFEND byte = 0xDC // Transposed Frame End
	TFESC byte = 0xDD // Transposed Frame Escape
)

// CmdData is the command nibble of a data frame on port 0.
const CmdData byte = 0x00

// Decoder reads KISS frames from an io.Reader
type Decoder struct {
	r       *bufio.Reader
	inFrame bool
}

// NewDecoder creates a new KISS frame decoder
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// readByte retries reads that time out without data, which serial ports
// with a read timeout report as empty reads.
func (d *Decoder) readByte() (byte, error) {
	for {
		b, err := d.r.ReadByte()
		if errors.Is(err, io.ErrNoProgress) {
			continue
		}
		return b, err
	}
}

// ReadFrame reads a single, complete KISS frame.
// A closing FEND also opens the next frame, so back to back frames may
// share a delimiter.
func (d *Decoder) ReadFrame() ([]byte, error) {
	var frame bytes.Buffer

	for {
		b, err := d.readByte()
		if err != nil {
			return nil, err
		}

		switch b {
		case FEND:
			if d.inFrame && frame.Len() > 0 {
				return frame.Bytes(), nil
			}
			// FEND FEND is an empty frame, keep waiting
			d.inFrame = true
		case FESC:
			if !d.inFrame {
				continue
			}
			b, err = d.readByte()
			if err != nil {
				return nil, err
			}
			switch b {
			case TFEND:
				frame.WriteByte(FEND)
			case TFESC:
				frame.WriteByte(FESC)
			default:
				// Protocol error, but we'll be lenient
				frame.WriteByte(b)
			}
		default:
			if d.inFrame {
				frame.WriteByte(b)
			}
		}
	}
}

// Encode wraps a payload in a KISS data frame for port 0.
func Encode(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+4)
	out = append(out, FEND, CmdData)
	for _, b := range payload {
		switch b {
		case FEND:
			out = append(out, FESC, TFEND)
		case FESC:
			out = append(out, FESC, TFESC)
		default:
			out = append(out, b)
		}
	}
	return append(out, FEND)
}
