package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GetClientIP determines the actual client IP address considering proxies.
func GetClientIP(c *fiber.Ctx) string {
	// 1. Check for Cloudflare header
	if cfIP := strings.TrimSpace(c.Get("CF-Connecting-IP")); cfIP != "" {
		return cfIP
	}

	// 2. Check for X-Forwarded-For header (standard proxy header)
	// It can contain a list of IPs - the first one is the original client IP
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}

	// 3. Fall back to the direct peer address
	return c.IP()
}

// collectHeaders copies the request headers into a flat map for provider
// adapters. Repeated headers keep the first value.
func collectHeaders(c *fiber.Ctx) map[string]string {
	headers := make(map[string]string)
	c.Request().Header.VisitAll(func(key, value []byte) {
		k := string(key)
		if _, ok := headers[k]; !ok {
			headers[k] = string(value)
		}
	})
	return headers
}
