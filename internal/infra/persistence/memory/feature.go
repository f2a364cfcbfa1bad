package memory

import (
	"time"

	"obshub/pkg/datastore"
)

// featureTable holds versioned feature resources. Versions of a feature
// share an internal ID and are discriminated by validity start time.
// Callers hold the database lock.
type featureTable[V any] struct {
	nextID  int64
	byID    map[int64][]featureVersion[V]
	idByUID map[string]int64
}

type featureVersion[V any] struct {
	validStart time.Time
	value      V
}

func newFeatureTable[V any]() featureTable[V] {
	return featureTable[V]{
		byID:    map[int64][]featureVersion[V]{},
		idByUID: map[string]int64{},
	}
}

func (t *featureTable[V]) get(key datastore.FeatureKey) (V, bool) {
	for _, ver := range t.byID[key.InternalID] {
		if ver.validStart.Equal(key.ValidStart) {
			return ver.value, true
		}
	}
	var zero V
	return zero, false
}

// add inserts a feature version. Versions of an already known UID reuse its
// internal ID; a version with the same validity start replaces the old one.
func (t *featureTable[V]) add(uid string, validStart time.Time, v V) datastore.FeatureKey {
	id, known := t.idByUID[uid]
	if !known {
		t.nextID++
		id = t.nextID
		t.idByUID[uid] = id
	}
	versions := t.byID[id]
	replaced := false
	for i, ver := range versions {
		if ver.validStart.Equal(validStart) {
			versions[i].value = v
			replaced = true
			break
		}
	}
	if !replaced {
		versions = append(versions, featureVersion[V]{validStart: validStart, value: v})
		// keep versions ordered by validity start
		for i := len(versions) - 1; i > 0 && versions[i].validStart.Before(versions[i-1].validStart); i-- {
			versions[i], versions[i-1] = versions[i-1], versions[i]
		}
	}
	t.byID[id] = versions
	return datastore.FeatureKey{InternalID: id, ValidStart: validStart}
}

// currentKey returns the key of the latest version of uid.
func (t *featureTable[V]) currentKey(uid string) (datastore.FeatureKey, bool) {
	id, ok := t.idByUID[uid]
	if !ok {
		return datastore.FeatureKey{}, false
	}
	versions := t.byID[id]
	if len(versions) == 0 {
		return datastore.FeatureKey{}, false
	}
	latest := versions[len(versions)-1]
	return datastore.FeatureKey{InternalID: id, ValidStart: latest.validStart}, true
}

// removeUID drops all versions of uid and returns the latest removed key.
func (t *featureTable[V]) removeUID(uid string) (datastore.FeatureKey, bool) {
	key, ok := t.currentKey(uid)
	if !ok {
		return datastore.FeatureKey{}, false
	}
	delete(t.byID, key.InternalID)
	delete(t.idByUID, uid)
	return key, true
}

// removeID drops all versions of the feature with the given internal ID.
func (t *featureTable[V]) removeID(id int64) {
	delete(t.byID, id)
	for uid, mapped := range t.idByUID {
		if mapped == id {
			delete(t.idByUID, uid)
			break
		}
	}
}

// uidOf returns the unique ID of the feature with the given internal ID.
func (t *featureTable[V]) uidOf(id int64) (string, bool) {
	for uid, mapped := range t.idByUID {
		if mapped == id {
			return uid, true
		}
	}
	return "", false
}
