package datastore

import (
	"fmt"
	"math/big"
)

// MaxDatabases is the arithmetic base used to combine a database number with
// a database-local entry ID into a single public ID. It bounds how many
// databases can be registered at once: public IDs are computed as
// localID*MaxDatabases + databaseNum, so the database number must stay below
// the base for the decomposition to be reversible.
const MaxDatabases = 100

var bigMaxDatabases = big.NewInt(MaxDatabases)

// EncodePublicID combines a database number and a database-local entry ID
// into a federation-wide public ID.
func EncodePublicID(databaseNum int, localID int64) int64 {
	return localID*MaxDatabases + int64(databaseNum)
}

// DecodePublicID splits a public ID into its database number and
// database-local entry ID.
func DecodePublicID(publicID int64) (databaseNum int, localID int64) {
	return int(publicID % MaxDatabases), publicID / MaxDatabases
}

// CheckDatabaseNum validates that a database number can participate in
// public ID arithmetic. Registering a database with a number outside
// [0, MaxDatabases) is a configuration error.
func CheckDatabaseNum(databaseNum int) error {
	if databaseNum < 0 || databaseNum >= MaxDatabases {
		return fmt.Errorf("database number %d out of range [0,%d)", databaseNum, MaxDatabases)
	}
	return nil
}

// BigID is an arbitrary-precision entry identifier. Observation and command
// stores use it instead of int64 because their keys are assigned from an
// ever-growing sequence that can exceed 64 bits over the lifetime of a
// long-running deployment. The zero value is not a valid ID.
type BigID struct {
	i *big.Int
}

// NewBigID returns a BigID holding the given 64-bit value.
func NewBigID(v int64) BigID {
	return BigID{i: big.NewInt(v)}
}

// BigIDFromInt returns a BigID holding a copy of v.
func BigIDFromInt(v *big.Int) BigID {
	if v == nil {
		return BigID{}
	}
	return BigID{i: new(big.Int).Set(v)}
}

// IsValid reports whether the ID holds a value.
func (id BigID) IsValid() bool {
	return id.i != nil
}

// Int returns a copy of the underlying integer, or nil for the zero value.
func (id BigID) Int() *big.Int {
	if id.i == nil {
		return nil
	}
	return new(big.Int).Set(id.i)
}

// Int64 returns the value as an int64 if it fits.
func (id BigID) Int64() (int64, bool) {
	if id.i == nil || !id.i.IsInt64() {
		return 0, false
	}
	return id.i.Int64(), true
}

// Cmp compares two IDs like big.Int.Cmp. The zero value sorts first.
func (id BigID) Cmp(other BigID) int {
	switch {
	case id.i == nil && other.i == nil:
		return 0
	case id.i == nil:
		return -1
	case other.i == nil:
		return 1
	}
	return id.i.Cmp(other.i)
}

// Equal reports value equality.
func (id BigID) Equal(other BigID) bool {
	return id.Cmp(other) == 0
}

func (id BigID) String() string {
	if id.i == nil {
		return "<nil>"
	}
	return id.i.String()
}

// MarshalText encodes the ID as a decimal string. The zero value encodes as
// an empty string.
func (id BigID) MarshalText() ([]byte, error) {
	if id.i == nil {
		return nil, nil
	}
	return []byte(id.i.String()), nil
}

// UnmarshalText decodes a decimal string; an empty string yields the zero
// value.
func (id *BigID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		id.i = nil
		return nil
	}
	v, ok := new(big.Int).SetString(string(b), 10)
	if !ok {
		return fmt.Errorf("invalid ID %q", b)
	}
	id.i = v
	return nil
}

// EncodeBigID combines a database number and a local BigID into a public
// BigID using the same arithmetic as EncodePublicID.
func EncodeBigID(databaseNum int, localID BigID) BigID {
	if localID.i == nil {
		return BigID{}
	}
	out := new(big.Int).Mul(localID.i, bigMaxDatabases)
	out.Add(out, big.NewInt(int64(databaseNum)))
	return BigID{i: out}
}

// DecodeBigID splits a public BigID into its database number and local ID.
func DecodeBigID(publicID BigID) (databaseNum int, localID BigID) {
	if publicID.i == nil {
		return 0, BigID{}
	}
	q, m := new(big.Int).QuoRem(publicID.i, bigMaxDatabases, new(big.Int))
	return int(m.Int64()), BigID{i: q}
}
