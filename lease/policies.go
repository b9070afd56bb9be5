package lease

import "github.com/jtbgroup/immocare-sub000/generic"

// =============================================================================
// LEASE-TYPE DEFAULTS
// =============================================================================

// Typical contract lengths, offered when a client does not send a duration.
var defaultDurationMonths = map[Type]int{
	TypeShortTerm:       3,
	TypeMainResidence3Y: 36,
	TypeMainResidence6Y: 72,
	TypeMainResidence9Y: 108,
	TypeStudent:         12,
	TypeGliding:         12,
	TypeCommercial:      108,
}

// DefaultDurationMonths returns the usual duration of a lease type.
func DefaultDurationMonths(t Type) int { return defaultDurationMonths[t] }

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config carries the tunables of the lease core. It is passed by value;
// nothing in this package reads global settings.
type Config struct {
	// DefaultIndexationNoticeDays applies when a lease is created without one.
	DefaultIndexationNoticeDays int

	// NoticeMonthsByType is the notice period used when a lease is created
	// or updated with a notice period of zero.
	NoticeMonthsByType map[Type]int

	// FallbackNoticeMonths applies to types missing from NoticeMonthsByType.
	FallbackNoticeMonths int

	// Clock returns "today". Defaults to generic.Today.
	Clock func() generic.Date
}

// DefaultConfig returns the Belgian residential defaults.
func DefaultConfig() Config {
	return Config{
		DefaultIndexationNoticeDays: 30,
		NoticeMonthsByType: map[Type]int{
			TypeShortTerm:       1,
			TypeMainResidence3Y: 3,
			TypeMainResidence6Y: 3,
			TypeMainResidence9Y: 3,
			TypeStudent:         1,
			TypeGliding:         3,
			TypeCommercial:      6,
		},
		FallbackNoticeMonths: 3,
		Clock:                generic.Today,
	}
}

// NoticeMonths returns the default notice period for a lease type.
func (c Config) NoticeMonths(t Type) int {
	if n, ok := c.NoticeMonthsByType[t]; ok && n > 0 {
		return n
	}
	return c.FallbackNoticeMonths
}

func (c Config) today() generic.Date {
	if c.Clock == nil {
		return generic.Today()
	}
	return c.Clock()
}
