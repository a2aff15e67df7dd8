// Package middleware composes the gateway-specific request-pipeline
// stages on top of the generic top-level middleware/ package (panic
// recovery, request-id). Every stage here reads/writes the ctxkey.*
// slots in a fixed order.
package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/opengw/llmgateway/common/ctxkey"
	"github.com/opengw/llmgateway/common/network"
)

// clientIPHeaders is the prioritized header list consulted before falling
// back to the raw connection address.
var clientIPHeaders = []string{
	"X-Playground-Client-IP",
	"X-Original-Client-IP",
	"X-Forwarded-For",
	"X-Real-IP",
	"CF-Connecting-IP",
	"True-Client-IP",
}

// ClientAttribution resolves the request's client IP and stashes it in
// context for downstream stages (blocking rules, analytics). UA/GeoIP
// enrichment is intentionally best-effort: a parse failure never aborts
// the request.
func ClientAttribution(geoLookup func(ip string) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := attributeClientIP(c)
		c.Set(ctxkey.ClientIP, ip)

		if geoLookup != nil {
			if country := geoLookup(ip); country != "" {
				c.Set(ctxkey.Country, country)
			}
		}

		c.Next()
	}
}

func attributeClientIP(c *gin.Context) string {
	for _, header := range clientIPHeaders {
		v := c.Request.Header.Get(header)
		if v == "" {
			continue
		}
		if header == "X-Forwarded-For" {
			if ip := firstPublicIP(v); ip != "" {
				return ip
			}
			continue
		}
		if ip := cleanIP(v); ip != "" {
			return ip
		}
	}
	return cleanIP(c.ClientIP())
}

// firstPublicIP scans a comma-separated X-Forwarded-For chain for the
// first public address.
func firstPublicIP(xff string) string {
	for part := range strings.SplitSeq(xff, ",") {
		ip := cleanIP(part)
		if ip != "" && network.IsPublicIP(ip) {
			return ip
		}
	}
	return ""
}

func cleanIP(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(v); err == nil {
		v = host
	}
	if net.ParseIP(v) == nil {
		return ""
	}
	return v
}
