package vector

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrCorrupt indicates an encoded vector payload is malformed.
var ErrCorrupt = errors.New("corrupt vector encoding")

// Encode packs v as a little-endian uint32 length prefix followed by
// little-endian float32 components.
func Encode(v []float32) []byte {
	buf := make([]byte, 4+len(v)*4)
	binary.LittleEndian.PutUint32(buf[:4], uint32(len(v)))
	off := 4
	for _, x := range v {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(x))
		off += 4
	}
	return buf
}

// Decode unpacks a payload produced by Encode. A nil or empty payload
// decodes to a nil vector.
func Decode(data []byte) ([]float32, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: payload too small", ErrCorrupt)
	}
	n := int(binary.LittleEndian.Uint32(data[:4]))
	data = data[4:]
	if len(data) != n*4 {
		return nil, fmt.Errorf("%w: length %d does not match %d bytes", ErrCorrupt, n, len(data))
	}
	v := make([]float32, n)
	for i := range n {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4 : (i+1)*4]))
	}
	return v, nil
}
