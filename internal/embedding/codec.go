package embedding

import (
	"encoding/binary"
	"math"
)

// Encode packs a vector as little-endian float32 values for BLOB/BYTEA columns.
func Encode(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Decode reverses Encode. Data whose length is not a multiple of four,
// or that holds NaN or Inf values, decodes to nil and is treated as the zero vector.
func Decode(data []byte) []float32 {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		f := math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return nil
		}
		vec[i] = f
	}
	return vec
}
