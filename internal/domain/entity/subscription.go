package entity

import "time"

// SubscriptionLimit is the maximum number of subscriptions a single chat
// may hold at once (§8 boundary behaviors: the 21st is rejected).
const SubscriptionLimit = 20

// FilterWordLimit bounds how many filter words (positive and negated
// combined) a subscription or chat may declare.
const FilterWordLimit = 50

// Subscription links one Chat to one Feed. The pair (ChatID, FeedID) is
// unique; ExternalID is a separate stable identifier (UUIDv4) used in
// user-facing callbacks so renaming internal IDs never breaks a deep
// link.
type Subscription struct {
	ID             int64
	ExternalID     string
	ChatID         int64
	FeedID         int64
	Template       string
	FilterWords    []string
	HasUpdates     bool
	LastDeliveredAt *time.Time
	ThreadID       *int64
}

// EffectiveFilterWords resolves the filter precedence for delivery:
// the subscription's own filter_words take priority; only when the
// subscription has none does the chat's filter_words apply.
func (s *Subscription) EffectiveFilterWords(chat *Chat) []string {
	if len(s.FilterWords) > 0 {
		return s.FilterWords
	}
	if chat != nil {
		return chat.FilterWords
	}
	return nil
}

// IsDirty reports whether this subscription has work pending for
// Delivery, as flagged by Sync through HasUpdates. It does not compare
// the delivery cursor against item timestamps.
func (s *Subscription) IsDirty() bool {
	return s.HasUpdates
}
