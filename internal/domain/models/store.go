package models

import (
	"fmt"
	"strings"
)

// Store identifies one of the three tracked convenience-store chains.
type Store string

const (
	StoreGS25  Store = "GS25"
	StoreCU    Store = "CU"
	StoreSeven Store = "SEVEN"
)

// AllStores lists every tracked chain in canonical order.
func AllStores() []Store {
	return []Store{StoreGS25, StoreCU, StoreSeven}
}

// ParseStore resolves a store code from user or upstream input.
// The upstream aggregate tables label Seven Eleven rows "seven".
func ParseStore(s string) (Store, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GS25":
		return StoreGS25, nil
	case "CU":
		return StoreCU, nil
	case "SEVEN", "SEVEN11", "7-ELEVEN":
		return StoreSeven, nil
	default:
		return "", fmt.Errorf("unknown store code: %q", s)
	}
}

// UpstreamLabel returns the store_type value used in the sales tables.
func (s Store) UpstreamLabel() string {
	if s == StoreSeven {
		return "seven"
	}
	return string(s)
}

func (s Store) String() string { return string(s) }
