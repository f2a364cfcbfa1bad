package datastore

import (
	"math/big"
	"testing"
)

func TestPublicIDRoundTrip(t *testing.T) {
	cases := []struct {
		databaseNum int
		localID     int64
	}{
		{0, 0},
		{0, 1},
		{1, 5},
		{42, 123456789},
		{99, 1},
		{7, 1<<62 / MaxDatabases},
	}
	for _, tc := range cases {
		public := EncodePublicID(tc.databaseNum, tc.localID)
		dbNum, localID := DecodePublicID(public)
		if dbNum != tc.databaseNum || localID != tc.localID {
			t.Errorf("round trip (%d,%d) -> %d -> (%d,%d)", tc.databaseNum, tc.localID, public, dbNum, localID)
		}
	}
}

func TestEncodePublicIDExample(t *testing.T) {
	if got := EncodePublicID(1, 5); got != 105 {
		t.Fatalf("EncodePublicID(1,5) = %d, want 105", got)
	}
	dbNum, localID := DecodePublicID(105)
	if dbNum != 1 || localID != 5 {
		t.Fatalf("DecodePublicID(105) = (%d,%d), want (1,5)", dbNum, localID)
	}
}

func TestBigIDRoundTrip(t *testing.T) {
	huge, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	if !ok {
		t.Fatal("bad literal")
	}
	cases := []struct {
		databaseNum int
		localID     BigID
	}{
		{0, NewBigID(1)},
		{1, NewBigID(5)},
		{99, NewBigID(1 << 60)},
		{13, BigIDFromInt(huge)},
	}
	for _, tc := range cases {
		public := EncodeBigID(tc.databaseNum, tc.localID)
		dbNum, localID := DecodeBigID(public)
		if dbNum != tc.databaseNum || !localID.Equal(tc.localID) {
			t.Errorf("round trip (%d,%s) -> %s -> (%d,%s)", tc.databaseNum, tc.localID, public, dbNum, localID)
		}
	}
}

func TestBigIDMatchesInt64Arithmetic(t *testing.T) {
	public := EncodeBigID(7, NewBigID(12345))
	got, ok := public.Int64()
	if !ok {
		t.Fatal("expected int64-sized result")
	}
	if want := EncodePublicID(7, 12345); got != want {
		t.Fatalf("big arithmetic diverges: got %d, want %d", got, want)
	}
}

func TestCheckDatabaseNum(t *testing.T) {
	if err := CheckDatabaseNum(0); err != nil {
		t.Errorf("0 should be valid: %v", err)
	}
	if err := CheckDatabaseNum(MaxDatabases - 1); err != nil {
		t.Errorf("max-1 should be valid: %v", err)
	}
	if err := CheckDatabaseNum(MaxDatabases); err == nil {
		t.Error("MaxDatabases should be rejected")
	}
	if err := CheckDatabaseNum(-1); err == nil {
		t.Error("negative numbers should be rejected")
	}
}

func TestBigIDOrdering(t *testing.T) {
	a, b := NewBigID(1), NewBigID(2)
	if a.Cmp(b) >= 0 || b.Cmp(a) <= 0 || a.Cmp(a) != 0 {
		t.Error("Cmp ordering broken")
	}
	var zero BigID
	if zero.IsValid() {
		t.Error("zero value must be invalid")
	}
	if zero.Cmp(a) != -1 {
		t.Error("zero value must sort first")
	}
}
