package instance

import (
	"os"
	"strings"
)

const envInstanceID = "SHOPFRONT_INSTANCE_ID"

// GetID returns the process identifier used as the owner of distributed
// locks: SHOPFRONT_INSTANCE_ID, then the hostname, then "worker-0".
func GetID() string {
	if id := strings.TrimSpace(os.Getenv(envInstanceID)); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
