package domain

import (
	"net/netip"
	"time"

	"github.com/google/uuid"
)

// BanScope is either site-wide or limited to a single category. Scoped and
// site-wide bans compose by union, never by override.
type BanScope struct {
	category CategoryId
	global   bool
}

func GlobalScope() BanScope {
	return BanScope{global: true}
}

func CategoryScope(id CategoryId) BanScope {
	return BanScope{category: id}
}

func (s BanScope) IsGlobal() bool {
	return s.global
}

// Category returns the scoped category id, if any.
func (s BanScope) Category() (CategoryId, bool) {
	if s.global {
		return uuid.Nil, false
	}
	return s.category, true
}

func (s BanScope) AppliesTo(categoryId CategoryId) bool {
	return s.global || s.category == categoryId
}

// to iterate thru layers: handler -> engine -> storage
type BanCreationData struct {
	Scope          BanScope
	LowerIpAddress netip.Addr
	UpperIpAddress netip.Addr
	Start          time.Time
	End            time.Time
	Reason         string
	RelatedPostId  *PostId
}

type Ban struct {
	Id             BanId
	Scope          BanScope
	LowerIpAddress netip.Addr
	UpperIpAddress netip.Addr

	// Half-open window: active for t in [Start, End).
	Start time.Time
	End   time.Time

	Reason        string
	RelatedPostId *PostId
	CreatedAt     time.Time
	IsDeleted     bool
}

// Active reports whether the ban blocks addr at the given instant.
// The address families must match; a v4 ban never blocks a v6 address.
// A v4-mapped v6 address counts as its v4 form.
func (b *Ban) Active(addr netip.Addr, at time.Time) bool {
	addr = addr.Unmap()
	if b.IsDeleted {
		return false
	}
	if addr.Is4() != b.LowerIpAddress.Is4() {
		return false
	}
	if addr.Compare(b.LowerIpAddress) < 0 || addr.Compare(b.UpperIpAddress) > 0 {
		return false
	}
	return !at.Before(b.Start) && at.Before(b.End)
}
