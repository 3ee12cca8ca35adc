package beneficiary

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bnp/financing/internal/domain"
	"github.com/bnp/financing/internal/usecase"
)

// CachedDirectory wraps a BeneficiaryDirectory with a read-through cache.
// Membership data changes rarely; a short TTL keeps origination from
// hammering the directory service.
type CachedDirectory struct {
	next  usecase.BeneficiaryDirectory
	cache usecase.Cache
	ttl   time.Duration
}

// NewCachedDirectory creates a new CachedDirectory.
func NewCachedDirectory(next usecase.BeneficiaryDirectory, cache usecase.Cache, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{
		next:  next,
		cache: cache,
		ttl:   ttl,
	}
}

// Lookup returns the cached beneficiary when present, otherwise falls
// through to the directory and caches the result. Cache failures are
// treated as misses; lookups never fail because the cache is down.
func (d *CachedDirectory) Lookup(ctx context.Context, id string) (*domain.BeneficiaryRef, error) {
	key := "beneficiary:" + id

	if cached, err := d.cache.Get(ctx, key); err == nil {
		var ref domain.BeneficiaryRef
		if err := json.Unmarshal([]byte(cached), &ref); err == nil {
			return &ref, nil
		}
	}

	ref, err := d.next.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(ref); err == nil {
		_ = d.cache.Set(ctx, key, string(encoded), d.ttl)
	}

	return ref, nil
}

// StaticDirectory serves a fixed member list. Used in development and tests
// when no directory service is configured.
type StaticDirectory struct {
	members map[string]string
}

// NewStaticDirectory creates a StaticDirectory from an id to display name map.
func NewStaticDirectory(members map[string]string) *StaticDirectory {
	return &StaticDirectory{members: members}
}

// Lookup resolves a beneficiary from the fixed member list.
func (d *StaticDirectory) Lookup(ctx context.Context, id string) (*domain.BeneficiaryRef, error) {
	name, ok := d.members[id]
	if !ok {
		return nil, domain.ErrBeneficiaryNotFound
	}

	return &domain.BeneficiaryRef{ID: id, DisplayName: name}, nil
}
