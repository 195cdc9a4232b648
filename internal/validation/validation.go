package validation

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Field length limits.
const (
	MaxTitleLength    = 200
	MaxCommentLength  = 5000
	MaxReviewerLength = 120
	MaxMediaRefs      = 20
	MaxClientName     = 120
)

// ErrInvalid is matched by every *Error via errors.Is.
var ErrInvalid = errors.New("validation error")

// Error reports a rejected input field.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrInvalid) true for any *Error.
func (e *Error) Is(target error) bool {
	return target == ErrInvalid
}

func invalid(field, message string) error {
	return &Error{Field: field, Message: message}
}

// ValidateComment checks an adjustment request comment. The comment is required.
func ValidateComment(comment string) error {
	trimmed := strings.TrimSpace(comment)
	if trimmed == "" {
		return invalid("comment", "a comment is required when requesting adjustments")
	}
	if utf8.RuneCountInString(trimmed) > MaxCommentLength {
		return invalid("comment", fmt.Sprintf("comment must be at most %d characters", MaxCommentLength))
	}
	return nil
}

// NormalizeReviewerName trims the display name supplied by a client and checks its length.
// An empty result is allowed; callers fall back to the client's name.
func NormalizeReviewerName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if utf8.RuneCountInString(name) > MaxReviewerLength {
		return "", invalid("reviewer_name", fmt.Sprintf("name must be at most %d characters", MaxReviewerLength))
	}
	return name, nil
}

// ValidateTitle checks a content title.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return invalid("title", "title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return invalid("title", fmt.Sprintf("title must be at most %d characters", MaxTitleLength))
	}
	return nil
}

// ValidateClientName checks the name of a new client.
func ValidateClientName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid("name", "client name is required")
	}
	if utf8.RuneCountInString(name) > MaxClientName {
		return invalid("name", fmt.Sprintf("client name must be at most %d characters", MaxClientName))
	}
	return nil
}

// ValidateMediaRefs checks that media references are http(s) URLs.
func ValidateMediaRefs(refs []string) error {
	if len(refs) > MaxMediaRefs {
		return invalid("media_refs", fmt.Sprintf("at most %d media references are allowed", MaxMediaRefs))
	}
	for _, ref := range refs {
		if ok, msg := ValidateURL(ref); !ok {
			return invalid("media_refs", msg)
		}
	}
	return nil
}

// RedactToken shortens a token for log output so it cannot be replayed from logs.
func RedactToken(token string) string {
	if len(token) <= 4 {
		return "…"
	}
	return token[:4] + "…"
}

// ValidateURL checks if a URL is valid and uses an allowed scheme (http/https only).
// This prevents javascript:, data:, vbscript:, and other dangerous URL schemes.
func ValidateURL(urlStr string) (bool, string) {
	if urlStr == "" {
		return false, "URL is required"
	}

	// Parse the URL
	u, err := url.Parse(urlStr)
	if err != nil {
		return false, "Invalid URL format"
	}

	// Check scheme - only allow http and https
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false, "URL must use http:// or https:// scheme"
	}

	// Ensure host is present
	if u.Host == "" {
		return false, "URL must have a valid host"
	}

	return true, ""
}

// IsPrivateIP checks if an IP address is in a private/reserved range.
// Used to prevent SSRF attacks against internal networks.
func IsPrivateIP(ip net.IP) bool {
	if ip == nil {
		return false
	}

	// Check for loopback
	if ip.IsLoopback() {
		return true
	}

	// Check for link-local
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}

	// Check for private ranges
	if ip.IsPrivate() {
		return true
	}

	// Check for unspecified (0.0.0.0 or ::)
	if ip.IsUnspecified() {
		return true
	}

	// Cloud metadata IP (AWS, GCP, Azure)
	// 169.254.169.254 is the standard metadata endpoint
	metadataIP := net.ParseIP("169.254.169.254")
	if ip.Equal(metadataIP) {
		return true
	}

	// Additional cloud metadata endpoints
	// Azure also uses 168.63.129.16
	azureMetadata := net.ParseIP("168.63.129.16")
	if ip.Equal(azureMetadata) {
		return true
	}

	return false
}

// IsPrivateHost checks if a hostname resolves to a private IP address.
// Returns true if the host is private/blocked, false if it's safe to access.
func IsPrivateHost(host string) (bool, error) {
	// Remove port if present
	hostname := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostname = h
	}

	// Resolve the hostname
	ips, err := net.LookupIP(hostname)
	if err != nil {
		// If we can't resolve, be conservative and block
		return true, err
	}

	// Check all resolved IPs
	for _, ip := range ips {
		if IsPrivateIP(ip) {
			return true, nil
		}
	}

	return false, nil
}

// ValidateWebhookURL validates a URL is safe to deliver outbound webhooks to.
// Blocks private IPs, localhost, and cloud metadata endpoints.
func ValidateWebhookURL(urlStr string) (bool, string) {
	// First do basic URL validation
	valid, msg := ValidateURL(urlStr)
	if !valid {
		return false, msg
	}

	u, _ := url.Parse(urlStr)

	// Check if host resolves to private IP
	isPrivate, err := IsPrivateHost(u.Host)
	if err != nil {
		return false, "Cannot resolve hostname"
	}
	if isPrivate {
		return false, "URL points to a private or reserved IP address"
	}

	return true, ""
}
