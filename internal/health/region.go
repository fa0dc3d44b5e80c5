package health

import (
	"net"
	"strings"
)

const (
	globalEndpoint = "global.health.amazonaws.com"
	defaultRegion  = "us-east-1"
)

// ActiveRegion resolves the currently active AWS Health region from the
// global endpoint's CNAME. The Health API is served from a single active
// region at a time; the global endpoint always points at it.
// See https://docs.aws.amazon.com/health/latest/ug/health-api.html#endpoints
func ActiveRegion() string {
	cname, err := net.LookupCNAME(globalEndpoint)
	if err != nil {
		return defaultRegion
	}
	return regionFromHost(cname)
}

// regionFromHost extracts the region label from an active endpoint host name
// such as "health.us-east-2.amazonaws.com".
func regionFromHost(host string) string {
	parts := strings.Split(strings.TrimSuffix(host, "."), ".")
	if len(parts) < 2 || parts[1] == "" {
		return defaultRegion
	}
	return parts[1]
}
