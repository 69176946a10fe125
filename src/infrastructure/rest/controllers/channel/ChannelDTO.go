package channel

type CreateChannelRequest struct {
	Name          string `json:"name" binding:"required"`
	Class         string `json:"class" binding:"required,oneof=official unofficial"`
	PerMinute     int    `json:"per_minute,omitempty"`
	PerHour       int    `json:"per_hour,omitempty"`
	PerDay        int    `json:"per_day,omitempty"`
	MinIntervalMS int    `json:"min_interval_ms,omitempty"`
	HourlyCeiling int    `json:"hourly_ceiling,omitempty"`
}

type ChannelResponse struct {
	ID            int    `json:"id"`
	TenantID      int    `json:"tenant_id"`
	Name          string `json:"name"`
	Class         string `json:"class"`
	PerMinute     int    `json:"per_minute,omitempty"`
	PerHour       int    `json:"per_hour,omitempty"`
	PerDay        int    `json:"per_day,omitempty"`
	MinIntervalMS int    `json:"min_interval_ms,omitempty"`
	HourlyCeiling int    `json:"hourly_ceiling,omitempty"`
}

type ChannelIDRequest struct {
	ID int `uri:"id" binding:"required"`
}
