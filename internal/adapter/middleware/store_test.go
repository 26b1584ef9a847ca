package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestOutcomeStore_ClaimOnce(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	s := &outcomeStore{rdb: rdb, ttl: time.Minute}
	ctx := context.Background()
	key := keyFor("POST", "/api/v1/loan/create", testSubject, testReqID)
	claim := outcome{Pending: true, Fingerprint: fingerprint([]byte(`{}`)), RequestID: testReqID, RequestAt: nowUTC()}

	ok, err := s.claim(ctx, key, claim)
	if err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}
	if ttl := mr.TTL(key); ttl <= 0 || ttl > claimTTL {
		t.Fatalf("claim ttl = %v", ttl)
	}
	if ok, err = s.claim(ctx, key, claim); err != nil || ok {
		t.Fatalf("second claim must lose: ok=%v err=%v", ok, err)
	}

	got, err := s.lookup(ctx, key)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !got.Pending || got.RequestID != testReqID || got.Fingerprint != claim.Fingerprint {
		t.Fatalf("lookup = %+v", got)
	}
}

func TestOutcomeStore_CommitAndRelease(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	s := &outcomeStore{rdb: rdb, ttl: 5 * time.Second}
	ctx := context.Background()
	key := keyFor("POST", "/api/v1/loan/9/kyc", testSubject, testReqID)

	done := outcome{Status: 200, Payload: []byte(`{"application_status":"KYC_COMPLETED"}`), Fingerprint: "f"}
	if err := s.commit(ctx, key, done); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if ttl := mr.TTL(key); ttl <= 0 || ttl > 5*time.Second {
		t.Fatalf("commit ttl = %v", ttl)
	}
	got, err := s.lookup(ctx, key)
	if err != nil || got.Pending || got.Status != 200 || string(got.Payload) != string(done.Payload) {
		t.Fatalf("lookup = %+v, %v", got, err)
	}

	if err := s.release(ctx, key); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := s.lookup(ctx, key); !errors.Is(err, redis.Nil) {
		t.Fatalf("lookup after release: %v", err)
	}
}

func TestOutcomeStore_CorruptEntry(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	s := &outcomeStore{rdb: rdb, ttl: time.Minute}
	if err := mr.Set("k", "not json"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.lookup(context.Background(), "k"); err == nil {
		t.Fatalf("expected decode error")
	}
}
