package event

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meshsync/chainwatch/pkg/io"
)

// KeySize is the byte length of a Key: a 32-byte creator account followed by
// a little-endian 8-byte creation number.
const KeySize = 40

const accountSize = 32

// Key identifies one logical stream of on-chain events, e.g. withdraw events
// of one particular account. It is stable across versions and unique within
// the chain.
type Key [KeySize]uint8

// configAccount is the well-known on-chain configuration account. Events
// emitted under it describe validator set and configuration changes.
var configAccount = [accountSize]uint8{accountSize - 4: 0x0A, accountSize - 3: 0x55, accountSize - 2: 0x0C, accountSize - 1: 0x18}

// newEpochCreationNum is the creation number of the new-epoch event stream
// under the configuration account.
const newEpochCreationNum = 5

// NewKey makes a Key from the creator account and the per-account creation
// number.
func NewKey(account [accountSize]uint8, creationNum uint64) Key {
	var k Key
	copy(k[:], account[:])
	binary.LittleEndian.PutUint64(k[accountSize:], creationNum)
	return k
}

// NewEpochKey returns the reserved Key of on-chain reconfiguration (new
// epoch) events.
func NewEpochKey() Key {
	return NewKey(configAccount, newEpochCreationNum)
}

// KeyDecodeString attempts to decode the given hex string (with or without
// the 0x prefix) into a Key.
func KeyDecodeString(s string) (Key, error) {
	var k Key
	s = strings.TrimPrefix(s, "0x")
	if len(s) != KeySize*2 {
		return k, fmt.Errorf("expected string size of %d got %d", KeySize*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return k, err
	}
	return KeyDecodeBytes(b)
}

// KeyDecodeBytes attempts to decode the given bytes into a Key.
func KeyDecodeBytes(b []byte) (k Key, err error) {
	if len(b) != KeySize {
		return k, fmt.Errorf("expected byte size of %d got %d", KeySize, len(b))
	}
	copy(k[:], b)
	return
}

// Account returns the creator account part of the key.
func (k Key) Account() [accountSize]uint8 {
	var a [accountSize]uint8
	copy(a[:], k[:accountSize])
	return a
}

// CreationNumber returns the per-account creation number part of the key.
func (k Key) CreationNumber() uint64 {
	return binary.LittleEndian.Uint64(k[accountSize:])
}

// Bytes returns the byte slice representation of k.
func (k Key) Bytes() []byte {
	return k[:]
}

// String implements the stringer interface.
func (k Key) String() string {
	return hex.EncodeToString(k.Bytes())
}

// Equals returns true if both keys are the same.
func (k Key) Equals(other Key) bool {
	return k == other
}

// EncodeBinary implements the io.Serializable interface.
func (k *Key) EncodeBinary(w *io.BinWriter) {
	w.WriteBytes(k[:])
}

// DecodeBinary implements the io.Serializable interface.
func (k *Key) DecodeBinary(r *io.BinReader) {
	r.ReadBytes(k[:])
}

// MarshalJSON implements the json marshaller interface.
func (k Key) MarshalJSON() ([]byte, error) {
	return []byte(`"0x` + k.String() + `"`), nil
}

// UnmarshalJSON implements the json unmarshaller interface.
func (k *Key) UnmarshalJSON(data []byte) (err error) {
	var js string
	if err = json.Unmarshal(data, &js); err != nil {
		return err
	}
	*k, err = KeyDecodeString(js)
	return err
}
