package http

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"ledgerview/internal/log"
)

// securityMetrics tracks security-related events.
type securityMetrics struct {
	rateLimitHits      int64
	suspiciousRequests int64
}

// trustedProxies defines networks that are trusted to set forwarding headers.
var trustedProxies = []*net.IPNet{
	parsecidr("127.0.0.0/8"),
	parsecidr("10.0.0.0/8"),
	parsecidr("172.16.0.0/12"),
	parsecidr("192.168.0.0/16"),
}

func parsecidr(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

func isTrustedProxy(ip net.IP) bool {
	for _, network := range trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// extractClientIP extracts the real client IP. Forwarding headers are only
// honoured when the direct peer is a trusted proxy.
func extractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsedDirectIP := net.ParseIP(directIP)
	if parsedDirectIP == nil || !isTrustedProxy(parsedDirectIP) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if clientIP := strings.TrimSpace(first); net.ParseIP(clientIP) != nil {
			return clientIP
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return directIP
}

var suspiciousPatterns = []string{
	"../", "..\\", ".env", ".git", "etc/passwd",
	"<script", "javascript:", "union select",
}

// maxUnescapeRounds bounds decoding of nested percent-encoding such as %252e.
const maxUnescapeRounds = 3

// isSuspicious flags traversal and injection patterns in path or query. The
// raw form and every percent-decoded form are checked, so %2e%2e%2f matches
// "../".
func isSuspicious(r *http.Request) bool {
	if len(r.URL.String()) > 2048 {
		return true
	}
	target := r.URL.EscapedPath() + "?" + r.URL.RawQuery
	for round := range maxUnescapeRounds + 1 {
		if containsSuspiciousPattern(target) {
			return true
		}
		decoded, err := url.QueryUnescape(target)
		if err != nil {
			// Only the wire form must be well encoded; a decoded "%" is data.
			return round == 0
		}
		if decoded == target {
			break
		}
		target = decoded
	}
	return containsSuspiciousPattern(r.URL.Path)
}

func containsSuspiciousPattern(s string) bool {
	s = strings.ToLower(s)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(s, pattern) {
			return true
		}
	}
	return false
}

// withSecurityHeaders sets defensive response headers, rejects suspicious
// requests and rate limits mutating requests.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")

		clientIP := extractClientIP(r)
		logger := log.FromContext(r.Context())

		if isSuspicious(r) {
			atomic.AddInt64(&s.metrics.suspiciousRequests, 1)
			logger.WarnContext(r.Context(), "Suspicious request rejected",
				log.FieldClientIP, clientIP, log.FieldPath, r.URL.Path)
			writeError(w, http.StatusBadRequest, "bad request")
			return
		}

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, s.metrics) {
			logger.WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, clientIP, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}
