package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/roach88/logwarden/internal/ban"
)

func createTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := OpenRedis(context.Background(), "redis://"+mr.Addr(), "test",
		WithRedisClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("OpenRedis() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestRedis_SaveGetDelete(t *testing.T) {
	s, mr := createTestRedisStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, testRecord("1.2.3.4")); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if !mr.Exists("test:ban:1.2.3.4") {
		t.Error("record hash not written")
	}

	got, err := s.Get(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	want := ban.Record{Address: "1.2.3.4", Path: "/wp-login.php", Pattern: "/wp-*", BannedAt: fixedNow}
	if got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}

	ok, err := s.Exists(ctx, "1.2.3.4")
	if err != nil || !ok {
		t.Errorf("Exists() = %v, %v; want true, nil", ok, err)
	}

	if err := s.Delete(ctx, "1.2.3.4"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := s.Get(ctx, "1.2.3.4"); !errors.Is(err, ban.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	ok, err = s.Exists(ctx, "1.2.3.4")
	if err != nil || ok {
		t.Errorf("Exists() after delete = %v, %v; want false, nil", ok, err)
	}
}

func TestRedis_SaveReplacesAndLists(t *testing.T) {
	s, _ := createTestRedisStore(t)
	ctx := context.Background()

	for _, addr := range []string{"9.9.9.9", "1.1.1.1"} {
		if err := s.Save(ctx, testRecord(addr)); err != nil {
			t.Fatalf("Save(%s) failed: %v", addr, err)
		}
	}
	if err := s.Save(ctx, ban.Record{Address: "9.9.9.9", Path: "/.git/config", Pattern: "*/.git/*"}); err != nil {
		t.Fatalf("Save() replace failed: %v", err)
	}

	records, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("List() returned %d records, want 2", len(records))
	}
	if records[0].Address != "1.1.1.1" || records[1].Address != "9.9.9.9" {
		t.Errorf("List() order = %s, %s", records[0].Address, records[1].Address)
	}
	if records[1].Path != "/.git/config" {
		t.Errorf("replaced Path = %q, want /.git/config", records[1].Path)
	}
}

func TestRedis_DefaultPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedis(client, "")
	defer s.Close()

	if err := s.Save(context.Background(), testRecord("1.2.3.4")); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if !mr.Exists("logwarden:bans") {
		t.Error("expected default prefix key logwarden:bans")
	}
}

func TestOpenRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := OpenRedis(ctx, "redis://"+addr, "", nil...); err == nil {
		t.Error("OpenRedis() to closed server succeeded, want error")
	}
}

func TestOpenRedis_BadURL(t *testing.T) {
	if _, err := OpenRedis(context.Background(), "not-a-url", ""); err == nil {
		t.Error("OpenRedis() with bad URL succeeded, want error")
	}
}
