package provider

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is a search category.
type Kind string

const (
	KindEmail  Kind = "email"
	KindPhone  Kind = "phone"
	KindHandle Kind = "handle"
	KindDomain Kind = "domain"
)

// Kinds lists every search kind in display order.
var Kinds = []Kind{KindEmail, KindPhone, KindHandle, KindDomain}

// ParseKind converts a user-supplied string to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown search kind: %q", s)
}

// KindSet is the capability set of a provider.
type KindSet map[Kind]struct{}

// NewKindSet builds a set from the given kinds.
func NewKindSet(kinds ...Kind) KindSet {
	set := make(KindSet, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	return set
}

// Has reports whether k is in the set.
func (s KindSet) Has(k Kind) bool {
	_, ok := s[k]
	return ok
}

// String renders the set sorted, comma separated.
func (s KindSet) String() string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

// AuthStyle describes how a credential is attached to a request.
type AuthStyle int

const (
	AuthNone AuthStyle = iota
	AuthHeader
	AuthBearer
	AuthQueryParam
)

func (a AuthStyle) String() string {
	switch a {
	case AuthHeader:
		return "header"
	case AuthBearer:
		return "bearer"
	case AuthQueryParam:
		return "query-param"
	default:
		return "none"
	}
}

// Tier separates providers usable without a credential from those that need one.
type Tier int

const (
	TierFree Tier = iota
	TierPaid
)

func (t Tier) String() string {
	if t == TierPaid {
		return "paid"
	}
	return "free"
}
