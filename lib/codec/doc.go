// Package codec serializes typed application values into fixed-capacity byte
// buffers. Every storable type declares an upper bound on its encoded size so
// the storage engine can reject oversized records before touching flash.
//
// The package focuses on:
//   - A small Value interface (max size declaration + marshal/unmarshal)
//   - Primitive value types covering the device configuration schema
//     (U8, U16, I16, U32, F32, fixed Bytes, capped String)
//   - Typed EncodeError/DecodeError results so callers can tell a caller bug
//     (buffer too small) from corrupted input
//
// Composite records implement Value themselves by composing the primitive
// encodings; see the storage package for examples.
//
// The wire format is little-endian with no field tags: decoding is only
// defined against the exact type that produced the bytes, which is the
// contract of a typed key-value store (each key has one schema).
package codec
