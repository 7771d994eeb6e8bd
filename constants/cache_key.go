package constants

import "strings"

const keyNamespace = "seldon"

// CacheKey names a family of Redis keys: "seldon:<name>:<version>:<id>".
// Bumping the version orphans entries written in an older layout.
type CacheKey struct {
	Name    string
	Version string
}

func (c CacheKey) Build(id string) string {
	return strings.Join([]string{keyNamespace, c.Name, c.Version, id}, ":")
}

// Prefix is the part of every key of the family before the id.
func (c CacheKey) Prefix() string {
	return c.Build("")
}

var (
	PredictionCacheKey = CacheKey{Name: "predictions", Version: "v1"}
	RateLimitKey       = CacheKey{Name: "ratelimit", Version: "v1"}
)
