package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Value is the contract every storable type satisfies. Implementations
// declare a worst-case encoded size up front; the storage engine checks that
// bound against its scratch buffer before any flash access.
type Value interface {
	// EncodedMaxSize returns the worst-case encoded size in bytes. It must
	// be constant for a given instance.
	EncodedMaxSize() int
	// MarshalRecord encodes the value into buf and returns the number of
	// bytes written. It fails with *EncodeError if buf is smaller than
	// EncodedMaxSize.
	MarshalRecord(buf []byte) (int, error)
	// UnmarshalRecord decodes the value from data. It fails with
	// *DecodeError on truncated, oversized or malformed input.
	UnmarshalRecord(data []byte) error
}

// --------------------------------------------------------------------------
// Error Types
// --------------------------------------------------------------------------

// EncodeError reports a failed encode, typically a caller-supplied buffer
// below the declared worst-case size.
type EncodeError struct {
	Msg string
}

// Error implements the error interface.
func (e *EncodeError) Error() string { return "encode error: " + e.Msg }

// DecodeError reports truncated, malformed or type-mismatched input.
type DecodeError struct {
	Msg string
}

// Error implements the error interface.
func (e *DecodeError) Error() string { return "decode error: " + e.Msg }

func encodeErrorf(format string, args ...interface{}) *EncodeError {
	return &EncodeError{Msg: fmt.Sprintf(format, args...)}
}

func decodeErrorf(format string, args ...interface{}) *DecodeError {
	return &DecodeError{Msg: fmt.Sprintf(format, args...)}
}

// checkBuf is the shared short-buffer guard for all marshal implementations.
func checkBuf(buf []byte, need int) error {
	if len(buf) < need {
		return encodeErrorf("buffer of %d bytes below declared size %d", len(buf), need)
	}
	return nil
}

// --------------------------------------------------------------------------
// Primitive Values
// --------------------------------------------------------------------------

// U8 stores a single unsigned byte.
type U8 uint8

func (v *U8) EncodedMaxSize() int { return 1 }

func (v *U8) MarshalRecord(buf []byte) (int, error) {
	if err := checkBuf(buf, 1); err != nil {
		return 0, err
	}
	buf[0] = byte(*v)
	return 1, nil
}

func (v *U8) UnmarshalRecord(data []byte) error {
	if len(data) != 1 {
		return decodeErrorf("u8 expects 1 byte, got %d", len(data))
	}
	*v = U8(data[0])
	return nil
}

// U16 stores an unsigned 16-bit integer (little-endian).
type U16 uint16

func (v *U16) EncodedMaxSize() int { return 2 }

func (v *U16) MarshalRecord(buf []byte) (int, error) {
	if err := checkBuf(buf, 2); err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint16(buf, uint16(*v))
	return 2, nil
}

func (v *U16) UnmarshalRecord(data []byte) error {
	if len(data) != 2 {
		return decodeErrorf("u16 expects 2 bytes, got %d", len(data))
	}
	*v = U16(binary.LittleEndian.Uint16(data))
	return nil
}

// I16 stores a signed 16-bit integer (little-endian, two's complement).
type I16 int16

func (v *I16) EncodedMaxSize() int { return 2 }

func (v *I16) MarshalRecord(buf []byte) (int, error) {
	if err := checkBuf(buf, 2); err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint16(buf, uint16(*v))
	return 2, nil
}

func (v *I16) UnmarshalRecord(data []byte) error {
	if len(data) != 2 {
		return decodeErrorf("i16 expects 2 bytes, got %d", len(data))
	}
	*v = I16(binary.LittleEndian.Uint16(data))
	return nil
}

// U32 stores an unsigned 32-bit integer (little-endian).
type U32 uint32

func (v *U32) EncodedMaxSize() int { return 4 }

func (v *U32) MarshalRecord(buf []byte) (int, error) {
	if err := checkBuf(buf, 4); err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint32(buf, uint32(*v))
	return 4, nil
}

func (v *U32) UnmarshalRecord(data []byte) error {
	if len(data) != 4 {
		return decodeErrorf("u32 expects 4 bytes, got %d", len(data))
	}
	*v = U32(binary.LittleEndian.Uint32(data))
	return nil
}

// F32 stores an IEEE 754 single-precision float (little-endian).
type F32 float32

func (v *F32) EncodedMaxSize() int { return 4 }

func (v *F32) MarshalRecord(buf []byte) (int, error) {
	if err := checkBuf(buf, 4); err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(*v)))
	return 4, nil
}

func (v *F32) UnmarshalRecord(data []byte) error {
	if len(data) != 4 {
		return decodeErrorf("f32 expects 4 bytes, got %d", len(data))
	}
	*v = F32(math.Float32frombits(binary.LittleEndian.Uint32(data)))
	return nil
}

// --------------------------------------------------------------------------
// Fixed-Size Byte Array
// --------------------------------------------------------------------------

// Bytes stores a fixed-size byte array. The size is fixed at construction;
// decode rejects input of any other length.
type Bytes struct {
	Data []byte
}

// NewBytes creates a Bytes value of the given fixed size.
func NewBytes(size int) *Bytes {
	return &Bytes{Data: make([]byte, size)}
}

func (v *Bytes) EncodedMaxSize() int { return len(v.Data) }

func (v *Bytes) MarshalRecord(buf []byte) (int, error) {
	if err := checkBuf(buf, len(v.Data)); err != nil {
		return 0, err
	}
	copy(buf, v.Data)
	return len(v.Data), nil
}

func (v *Bytes) UnmarshalRecord(data []byte) error {
	if len(data) != len(v.Data) {
		return decodeErrorf("fixed bytes expects %d bytes, got %d", len(v.Data), len(data))
	}
	copy(v.Data, data)
	return nil
}

// --------------------------------------------------------------------------
// Capped String
// --------------------------------------------------------------------------

// String stores a UTF-8 string with a fixed capacity, encoded as a 2-byte
// little-endian length prefix followed by the raw bytes.
type String struct {
	Cap int
	Val string
}

// NewString creates an empty String value with the given capacity.
func NewString(capacity int) *String {
	return &String{Cap: capacity}
}

func (v *String) EncodedMaxSize() int { return 2 + v.Cap }

func (v *String) MarshalRecord(buf []byte) (int, error) {
	if len(v.Val) > v.Cap {
		return 0, encodeErrorf("string of %d bytes exceeds capacity %d", len(v.Val), v.Cap)
	}
	if err := checkBuf(buf, v.EncodedMaxSize()); err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint16(buf, uint16(len(v.Val)))
	copy(buf[2:], v.Val)
	return 2 + len(v.Val), nil
}

func (v *String) UnmarshalRecord(data []byte) error {
	if len(data) < 2 {
		return decodeErrorf("string record truncated: %d bytes", len(data))
	}
	n := int(binary.LittleEndian.Uint16(data))
	if n > v.Cap {
		return decodeErrorf("string length %d exceeds capacity %d", n, v.Cap)
	}
	if len(data) != 2+n {
		return decodeErrorf("string record expects %d bytes, got %d", 2+n, len(data))
	}
	v.Val = string(data[2 : 2+n])
	return nil
}
