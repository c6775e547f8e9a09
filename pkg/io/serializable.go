package io

// Serializable defines the binary encoding/decoding interface. Errors are
// carried by the BinReader/BinWriter Err field.
type Serializable interface {
	DecodeBinary(*BinReader)
	EncodeBinary(*BinWriter)
}
