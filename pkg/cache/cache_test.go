package cache

import (
	"context"
	"testing"
	"time"
)

func TestNew_WithoutRedisIsNoop(t *testing.T) {
	c := New(nil, time.Minute)
	if _, ok := c.(Noop); !ok {
		t.Fatalf("New(nil) = %T, want Noop", c)
	}

	ctx := context.Background()
	if err := c.Set(ctx, RoomTypesKey, []string{"Suite"}); err != nil {
		t.Errorf("Set() error: %v", err)
	}
	var types []string
	found, err := c.Get(ctx, RoomTypesKey, &types)
	if err != nil || found {
		t.Errorf("Get() = %v, %v; want miss", found, err)
	}
	if err := c.Delete(ctx, RoomKey("r1"), RoomTypesKey); err != nil {
		t.Errorf("Delete() error: %v", err)
	}
}

func TestKeys(t *testing.T) {
	if RoomKey("abc") != "paradisian:rooms:abc" {
		t.Errorf("RoomKey() = %s", RoomKey("abc"))
	}
	if RoomKey("types") == RoomTypesKey {
		t.Errorf("room keys must not collide with the room types key")
	}
}
