package registry

import "testing"

func TestUIDMapExactAndWildcard(t *testing.T) {
	m := newUIDMap()
	m, ok := m.put("urn:test:sensor1", 1)
	if !ok {
		t.Fatal("exact put failed")
	}
	m, ok = m.put("urn:fleet:*", 2)
	if !ok {
		t.Fatal("wildcard put failed")
	}

	if num, ok := m.get("urn:test:sensor1"); !ok || num != 1 {
		t.Errorf("exact lookup = (%d,%v), want (1,true)", num, ok)
	}
	if num, ok := m.get("urn:fleet:truck42"); !ok || num != 2 {
		t.Errorf("wildcard lookup = (%d,%v), want (2,true)", num, ok)
	}
	if _, ok := m.get("urn:other:sensor1"); ok {
		t.Error("unclaimed namespace must not match")
	}
}

func TestUIDMapLongestPrefixWins(t *testing.T) {
	// Nested claims are only possible within one database; the longest
	// matching prefix still decides which entry resolves.
	m := newUIDMap()
	m, _ = m.put("urn:a:*", 1)
	m, ok := m.put("urn:a:b:*", 1)
	if !ok {
		t.Fatal("nested claim by the same database must succeed")
	}
	if num, ok := m.get("urn:a:b:sensor1"); !ok || num != 1 {
		t.Errorf("nested lookup = (%d,%v), want (1,true)", num, ok)
	}
	m = m.delete("urn:a:b:*")
	if num, ok := m.get("urn:a:b:sensor1"); !ok || num != 1 {
		t.Errorf("outer claim must still resolve, got (%d,%v)", num, ok)
	}
}

func TestUIDMapRejectsDuplicateClaim(t *testing.T) {
	m := newUIDMap()
	m, _ = m.put("urn:test:sensor1", 1)
	if _, ok := m.put("urn:test:sensor1", 2); ok {
		t.Error("second exact claim must fail")
	}
	m, _ = m.put("urn:test:*", 1)
	if _, ok := m.put("urn:test:*", 2); ok {
		t.Error("second wildcard claim must fail")
	}
}

func TestUIDMapRejectsOverlappingClaims(t *testing.T) {
	m := newUIDMap()
	m, _ = m.put("urn:ns:*", 1)
	m, _ = m.put("urn:iso:sensor9", 1)

	// Exact claim inside another database's namespace.
	if _, ok := m.put("urn:ns:s1", 2); ok {
		t.Error("exact claim inside a foreign namespace must fail")
	}
	// Wildcard claim covering another database's exact claim.
	if _, ok := m.put("urn:iso:*", 2); ok {
		t.Error("wildcard claim over a foreign exact claim must fail")
	}
	// Nested wildcard claims in either direction.
	if _, ok := m.put("urn:ns:sub:*", 2); ok {
		t.Error("narrower wildcard inside a foreign namespace must fail")
	}
	if _, ok := m.put("urn:*", 2); ok {
		t.Error("wider wildcard over a foreign namespace must fail")
	}
	if owner, ok := m.claimant("urn:ns:s1"); !ok || owner != 1 {
		t.Errorf("claimant = (%d,%v), want (1,true)", owner, ok)
	}

	// The same database may refine its own namespace.
	m, ok := m.put("urn:ns:special", 1)
	if !ok {
		t.Fatal("own-namespace refinement must succeed")
	}
	if num, _ := m.get("urn:ns:special"); num != 1 {
		t.Errorf("refined entry resolves to db %d, want 1", num)
	}
}

func TestUIDMapImmutability(t *testing.T) {
	m1 := newUIDMap()
	m2, _ := m1.put("urn:test:sensor1", 1)
	if _, ok := m1.get("urn:test:sensor1"); ok {
		t.Error("put must not mutate the original map")
	}
	m3 := m2.delete("urn:test:sensor1")
	if _, ok := m2.get("urn:test:sensor1"); !ok {
		t.Error("delete must not mutate the original map")
	}
	if _, ok := m3.get("urn:test:sensor1"); ok {
		t.Error("deleted entry still resolves")
	}
}

func TestUIDMapDeleteDatabase(t *testing.T) {
	m := newUIDMap()
	m, _ = m.put("urn:a:sensor1", 1)
	m, _ = m.put("urn:a:*", 1)
	m, _ = m.put("urn:b:sensor1", 2)

	m = m.deleteDatabase(1)
	if _, ok := m.get("urn:a:sensor1"); ok {
		t.Error("db 1 exact claim survived")
	}
	if _, ok := m.get("urn:a:other"); ok {
		t.Error("db 1 wildcard claim survived")
	}
	if num, ok := m.get("urn:b:sensor1"); !ok || num != 2 {
		t.Error("db 2 claim must survive")
	}
}
