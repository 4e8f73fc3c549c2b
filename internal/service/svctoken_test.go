package service

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func stubTokenFetcher(expiresIn int64) (*int, func()) {
	calls := 0
	orig := fetchServiceToken
	fetchServiceToken = func(ctx context.Context, tenant string) (serviceToken, error) {
		calls++
		return serviceToken{
			AccessToken: fmt.Sprintf("token-%s-%d", tenant, calls),
			ExpiresIn:   expiresIn,
		}, nil
	}
	restore := func() {
		fetchServiceToken = orig
		svcTokenMu.Lock()
		svcTokens = make(map[string]serviceToken)
		svcTokenMu.Unlock()
	}
	return &calls, restore
}

func TestServiceAccountTokenCached(t *testing.T) {
	calls, restore := stubTokenFetcher(3600)
	defer restore()
	ctx := context.Background()

	first, err := ServiceAccountToken(ctx, "tenant-a")
	if err != nil {
		t.Fatalf("ServiceAccountToken failed: %v", err)
	}
	second, err := ServiceAccountToken(ctx, "tenant-a")
	if err != nil {
		t.Fatalf("ServiceAccountToken failed: %v", err)
	}
	if first != second {
		t.Fatal("expect the cached token on the second call")
	}
	if *calls != 1 {
		t.Fatalf("expect 1 fetch, got %d", *calls)
	}
}

func TestServiceAccountTokenPerTenant(t *testing.T) {
	calls, restore := stubTokenFetcher(3600)
	defer restore()
	ctx := context.Background()

	a, err := ServiceAccountToken(ctx, "tenant-a")
	if err != nil {
		t.Fatalf("ServiceAccountToken failed: %v", err)
	}
	b, err := ServiceAccountToken(ctx, "tenant-b")
	if err != nil {
		t.Fatalf("ServiceAccountToken failed: %v", err)
	}
	if a == b {
		t.Fatal("tenants must not share tokens")
	}
	if *calls != 2 {
		t.Fatalf("expect one fetch per tenant, got %d", *calls)
	}
}

func TestServiceAccountTokenSkewRefresh(t *testing.T) {
	// a lifetime inside the skew window is treated as already expired
	calls, restore := stubTokenFetcher(int64(tokenSkew/time.Second) - 1)
	defer restore()
	ctx := context.Background()

	first, err := ServiceAccountToken(ctx, "tenant-a")
	if err != nil {
		t.Fatalf("ServiceAccountToken failed: %v", err)
	}
	second, err := ServiceAccountToken(ctx, "tenant-a")
	if err != nil {
		t.Fatalf("ServiceAccountToken failed: %v", err)
	}
	if first == second {
		t.Fatal("expect a refresh when the token is within the skew window")
	}
	if *calls != 2 {
		t.Fatalf("expect 2 fetches, got %d", *calls)
	}
}
