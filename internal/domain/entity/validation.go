package entity

import (
	"fmt"
	"net"
	"net/url"
)

// maxURLLength defines the maximum allowed length for URLs to prevent DoS attacks.
const maxURLLength = 2048

// ValidateURL validates the format and safety of a URL.
// It checks that the URL is well-formed, uses HTTP/HTTPS scheme, and has a valid host.
// It also blocks private IP addresses to prevent SSRF attacks.
// Returns a ValidationError if the URL is invalid or empty.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}

	// DoS protection: enforce maximum URL length
	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse URL: %w", err)
	}

	// HTTPまたはHTTPSスキームのみ許可
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "URL must use http or https scheme"}
	}

	// ホスト名の検証
	if parsedURL.Host == "" {
		return &ValidationError{Field: "url", Message: "URL must have a valid host"}
	}

	// SSRF対策: プライベートIPアドレスをブロック
	host := parsedURL.Hostname()
	ips, err := net.LookupIP(host)
	if err == nil && len(ips) > 0 {
		for _, ip := range ips {
			if isPrivateIP(ip) {
				return &ValidationError{
					Field:   "url",
					Message: "url cannot point to private network",
				}
			}
		}
	}

	return nil
}

// isPrivateIP checks if an IP address is in a private or restricted range,
// blocking both IPv4 and IPv6:
// - loopback (127.0.0.0/8, ::1)
// - private networks (10.0.0.0/8, 172.16.0.0/12, 192.168.0.0/16, fc00::/7)
// - link-local addresses (169.254.0.0/16, fe80::/10), which also covers
//   cloud metadata endpoints (169.254.169.254)
func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() {
		return true
	}
	if ip.IsPrivate() {
		return true
	}
	if ip.IsLinkLocalUnicast() {
		return true
	}
	return false
}

// ValidateUTCOffsetMinutes validates a chat's utc_offset_minutes value
// against the accepted range and step (§8 boundary behaviors).
func ValidateUTCOffsetMinutes(offset int) error {
	if !ValidUTCOffsetMinutes(offset) {
		return fmt.Errorf("%w: %d (must be in [%d,%d], divisible by %d)",
			ErrInvalidUTCOffset, offset, MinUTCOffsetMinutes, MaxUTCOffsetMinutes, UTCOffsetStepMinutes)
	}
	return nil
}

// ValidateSubscriptionCount validates that adding one more subscription
// to a chat that already holds `existing` would not exceed
// SubscriptionLimit.
func ValidateSubscriptionCount(existing int) error {
	if existing >= SubscriptionLimit {
		return fmt.Errorf("%w: chat already has %d subscriptions (limit %d)",
			ErrSubscriptionLimitExceeded, existing, SubscriptionLimit)
	}
	return nil
}

// ValidateFilterWords validates that a filter word list does not exceed
// FilterWordLimit.
func ValidateFilterWords(words []string) error {
	if len(words) > FilterWordLimit {
		return fmt.Errorf("%w: %d words (limit %d)",
			ErrFilterWordLimitExceeded, len(words), FilterWordLimit)
	}
	return nil
}
