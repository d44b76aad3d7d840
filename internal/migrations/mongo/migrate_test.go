package mongo

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func hasUniqueIndex(def CollectionDef, field string) bool {
	for _, idx := range def.Indexes {
		keys, ok := idx.Keys.(bson.D)
		if !ok || len(keys) != 1 || keys[0].Key != field {
			continue
		}
		if idx.Options != nil && idx.Options.Unique != nil && *idx.Options.Unique {
			return true
		}
	}
	return false
}

func TestCollections(t *testing.T) {
	defs := Collections()

	for _, name := range []string{RoomsCollection, UsersCollection, BookingsCollection, RoomLocksCollection} {
		def, ok := defs[name]
		if !ok {
			t.Fatalf("missing collection %s", name)
		}
		if _, ok := def.Validator["$jsonSchema"]; !ok {
			t.Errorf("%s has no $jsonSchema validator", name)
		}
		if len(def.Indexes) == 0 {
			t.Errorf("%s has no indexes", name)
		}
	}

	unique := []struct{ collection, field string }{
		{UsersCollection, "email"},
		{UsersCollection, "phone_number"},
		{BookingsCollection, "confirmation_code"},
	}
	for _, u := range unique {
		if !hasUniqueIndex(defs[u.collection], u.field) {
			t.Errorf("%s.%s must be unique", u.collection, u.field)
		}
	}
}

func TestRoomLocksExpire(t *testing.T) {
	idx := RoomLocksIndexes[0]
	if idx.Options == nil || idx.Options.ExpireAfterSeconds == nil || *idx.Options.ExpireAfterSeconds != 0 {
		t.Fatal("room locks must expire at expires_at")
	}
}
