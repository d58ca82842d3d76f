package models

import "time"

const (
	EventInquiryCreated = "inquiry.created"
	EventTrendingSaved  = "trending.saved"
	EventProductDeleted = "product.deleted"
)

// EventPayload is the envelope published to SNS or Kafka.
type EventPayload struct {
	EventType  string                 `json:"event_type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

// Dashboard aggregates the admin landing page counters.
type Dashboard struct {
	Categories      int64     `json:"categories"`
	Products        int64     `json:"products"`
	TrendingCount   int64     `json:"trending"`
	Posts           int64     `json:"posts"`
	PublishedPosts  int64     `json:"published_posts"`
	Inquiries       int64     `json:"inquiries"`
	UnreadInquiries int64     `json:"unread_inquiries"`
	RecentInquiries []Inquiry `json:"recent_inquiries"`
}
