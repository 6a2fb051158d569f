package iq

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/doismellburning/gnssrecv/internal/gnsserr"
)

// Encoding identifies one of the recognized interleaved IQ sample
// layouts from spec.md §4.1 / §6 (-t flag). The dispatch is a tagged
// variant chosen once at startup (spec.md §9 "Dynamic dispatch across
// sample encodings") — the hot path below switches on it per *block*,
// never per sample, via the decode function captured in Conditioner.
type Encoding int

const (
	EncodingI8 Encoding = iota
	EncodingU8
	EncodingI16
	EncodingF16
	EncodingF32
)

// ParseEncoding maps the -t flag's string form to an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "i8":
		return EncodingI8, nil
	case "u8":
		return EncodingU8, nil
	case "2xi16":
		return EncodingI16, nil
	case "2xf16":
		return EncodingF16, nil
	case "2xf32":
		return EncodingF32, nil
	default:
		return 0, fmt.Errorf("%w: %q", gnsserr.ErrInputEncodingUnsupported, s)
	}
}

// BytesPerSample returns the number of bytes one complex sample
// occupies in the given wire encoding.
func (e Encoding) BytesPerSample() int {
	switch e {
	case EncodingI8, EncodingU8:
		return 2
	case EncodingI16:
		return 4
	case EncodingF16:
		return 4
	case EncodingF32:
		return 8
	default:
		return 0
	}
}

// decodeFunc turns n complex samples' worth of raw bytes into Samples.
// Chosen once per Encoding at startup; never switches per-sample.
type decodeFunc func(raw []byte, out []Sample)

func decoderFor(e Encoding) decodeFunc {
	switch e {
	case EncodingI8:
		return decodeI8
	case EncodingU8:
		return decodeU8
	case EncodingI16:
		return decodeI16
	case EncodingF16:
		return decodeF16
	case EncodingF32:
		return decodeF32
	default:
		return nil
	}
}

func decodeI8(raw []byte, out []Sample) {
	for i := range out {
		out[i] = Sample{
			I: float32(int8(raw[2*i])) / 128.0,
			Q: float32(int8(raw[2*i+1])) / 128.0,
		}
	}
}

// decodeU8 applies the RTL-SDR bias: real value = (byte-127.5)/127.5.
func decodeU8(raw []byte, out []Sample) {
	for i := range out {
		out[i] = Sample{
			I: (float32(raw[2*i]) - 127.5) / 127.5,
			Q: (float32(raw[2*i+1]) - 127.5) / 127.5,
		}
	}
}

func decodeI16(raw []byte, out []Sample) {
	for i := range out {
		iv := int16(binary.LittleEndian.Uint16(raw[4*i : 4*i+2]))
		qv := int16(binary.LittleEndian.Uint16(raw[4*i+2 : 4*i+4]))
		out[i] = Sample{I: float32(iv) / 32768.0, Q: float32(qv) / 32768.0}
	}
}

func decodeF16(raw []byte, out []Sample) {
	for i := range out {
		iv := float16ToFloat32(binary.LittleEndian.Uint16(raw[4*i : 4*i+2]))
		qv := float16ToFloat32(binary.LittleEndian.Uint16(raw[4*i+2 : 4*i+4]))
		out[i] = Sample{I: iv, Q: qv}
	}
}

func decodeF32(raw []byte, out []Sample) {
	for i := range out {
		iv := math.Float32frombits(binary.LittleEndian.Uint32(raw[8*i : 8*i+4]))
		qv := math.Float32frombits(binary.LittleEndian.Uint32(raw[8*i+4 : 8*i+8]))
		out[i] = Sample{I: iv, Q: qv}
	}
}

// float16ToFloat32 decodes an IEEE 754 binary16 value. There is no
// complex-i16-and-half-float source in the pack to borrow from, so
// this is a direct bit-manipulation per the format's definition.
func float16ToFloat32(h uint16) float32 {
	sign := uint32(h>>15) & 0x1
	exp := uint32(h>>10) & 0x1f
	frac := uint32(h) & 0x3ff

	var f uint32
	switch {
	case exp == 0 && frac == 0:
		f = sign << 31
	case exp == 0x1f:
		f = (sign << 31) | (0xff << 23) | (frac << 13)
	case exp == 0:
		// subnormal
		for frac&0x400 == 0 {
			frac <<= 1
			exp--
		}
		exp++
		frac &= 0x3ff
		f = (sign << 31) | ((exp + 112) << 23) | (frac << 13)
	default:
		f = (sign << 31) | ((exp + 112) << 23) | (frac << 13)
	}
	return math.Float32frombits(f)
}
