package engine

import (
	"context"
	"net/netip"
	"time"

	"github.com/kotoba-dev/kotoba/internal/domain"
)

// BanRepository supplies the ban set a guard decision is made against.
// Implementations return both site-wide bans and bans scoped to the given
// category; the guard does not care how the set was narrowed.
type BanRepository interface {
	ActiveBansFor(ctx context.Context, categoryId domain.CategoryId, at time.Time) ([]domain.Ban, error)
}

type BanGuard struct {
	bans BanRepository
}

func NewBanGuard(bans BanRepository) *BanGuard {
	return &BanGuard{bans: bans}
}

// IsBlocked decides whether posting from addr into the category is blocked
// at the given instant. When several bans match, the one with the latest
// end is returned for diagnostics; the blocking decision itself is the
// union of all matches.
func (g *BanGuard) IsBlocked(ctx context.Context, addr netip.Addr, categoryId domain.CategoryId, at time.Time) (bool, *domain.Ban, error) {
	bans, err := g.bans.ActiveBansFor(ctx, categoryId, at)
	if err != nil {
		return false, nil, err
	}

	var longest *domain.Ban
	for i := range bans {
		ban := &bans[i]
		if !ban.Scope.AppliesTo(categoryId) {
			continue
		}
		if !ban.Active(addr, at) {
			continue
		}
		if longest == nil || ban.End.After(longest.End) {
			longest = ban
		}
	}
	return longest != nil, longest, nil
}
