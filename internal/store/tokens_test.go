package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/sredstva/internal/db"
)

func TestRevokeToken(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	expires := time.Now().Add(time.Hour)

	if revoked, err := IsTokenRevoked(ctx, database, "jti-a"); err != nil || revoked {
		t.Fatalf("fresh token: revoked=%v err=%v", revoked, err)
	}

	// Logging out twice with the same token is not an error.
	for i := 0; i < 2; i++ {
		if err := RevokeToken(ctx, database, "jti-a", expires); err != nil {
			t.Fatalf("RevokeToken #%d: %v", i+1, err)
		}
	}

	for jti, want := range map[string]bool{"jti-a": true, "jti-b": false} {
		revoked, err := IsTokenRevoked(ctx, database, jti)
		if err != nil {
			t.Fatalf("IsTokenRevoked(%s): %v", jti, err)
		}
		if revoked != want {
			t.Errorf("IsTokenRevoked(%s) = %v, want %v", jti, revoked, want)
		}
	}
}

func TestPurgeExpiredTokens(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()

	RevokeToken(ctx, database, "soon", now.Add(time.Hour))
	RevokeToken(ctx, database, "later", now.Add(24*time.Hour))

	n, err := PurgeExpiredTokens(ctx, database, now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("PurgeExpiredTokens: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 purged token, got %d", n)
	}

	if revoked, _ := IsTokenRevoked(ctx, database, "soon"); revoked {
		t.Error("expected expired revocation to be purged")
	}
	if revoked, _ := IsTokenRevoked(ctx, database, "later"); !revoked {
		t.Error("expected unexpired revocation to stay")
	}
}
