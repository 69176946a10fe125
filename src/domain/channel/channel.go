package channel

import (
	"strconv"
	"time"
)

// Class is the capability class of a messaging channel
type Class string

const (
	// ClassOfficial channels carry provider-declared hard send ceilings
	ClassOfficial Class = "official"

	// ClassUnofficial channels have no declared ceilings; sends are
	// self-paced as a precaution against being flagged
	ClassUnofficial Class = "unofficial"
)

// RateProfile declares the send-rate ceilings of a channel.
// Official channels use the rolling-window caps; unofficial channels use the
// minimum inter-send interval plus a coarse hourly ceiling.
type RateProfile struct {
	PerMinute     int           `json:"per_minute"`
	PerHour       int           `json:"per_hour"`
	PerDay        int           `json:"per_day"`
	MinInterval   time.Duration `json:"min_interval"`
	HourlyCeiling int           `json:"hourly_ceiling"`
}

// Channel represents an external messaging account/integration owned by a tenant
type Channel struct {
	ID          int
	TenantID    int
	Name        string
	Class       Class
	RateProfile RateProfile
	Status      bool // whether the channel is active
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Key identifies the consumption ledger shared by every campaign sending
// through this channel
func (c *Channel) Key() string {
	return strconv.Itoa(c.TenantID) + ":" + strconv.Itoa(c.ID)
}
