package reelscrape

import (
	"context"
	"slices"
	"strings"
)

// ResolutionStrategy tags how a ResolutionResult was reached.
type ResolutionStrategy string

// Resolution strategies.
const (
	StrategyFastPath ResolutionStrategy = "fast-path"
	StrategyScraped  ResolutionStrategy = "scraped"
	StrategyFallback ResolutionStrategy = "fallback"
)

// Messages carried by degraded resolution results.
const (
	MessageNotFound = "File Not Found or Link Expired"
	MessageTimeout  = "resolution timed out"
)

// ResolutionResult is the outcome of resolving a download/server URL.
type ResolutionResult struct {
	OriginalURL string             `json:"originalUrl"`
	ResolvedURL string             `json:"resolvedUrl"`
	IsResolved  bool               `json:"isResolved"`
	Strategy    ResolutionStrategy `json:"strategy"`
	// Message explains degraded outcomes such as timeouts or expired links.
	Message string `json:"message,omitempty"`
}

// Resolver follows a download/server URL to a directly playable media URL.
type Resolver interface {
	// Resolve never reports an unresolved link as an error: timeouts and
	// expired links yield IsResolved=false with a Message. Errors are
	// reserved for unexpected upstream failures.
	Resolve(ctx context.Context, url string) (*ResolutionResult, error)
}

// Signal is a substring whose presence marks a URL as a direct media link.
type Signal struct {
	Pattern string `json:"pattern"`
	Meaning string `json:"meaning"`
}

// Signals is an ordered allow-list of direct-link signals. It is plain data
// so it can be replaced without touching resolver control flow.
type Signals []Signal

// DefaultSignals returns the built-in direct-link heuristics.
func DefaultSignals() Signals {
	return Signals{
		{Pattern: "workers.dev", Meaning: "edge worker"},
		{Pattern: ".mkv", Meaning: "media extension"},
		{Pattern: ".mp4", Meaning: "media extension"},
		{Pattern: ".m3u8", Meaning: "media extension"},
		{Pattern: "cdn.", Meaning: "cdn host"},
		{Pattern: "stream.", Meaning: "streaming host"},
	}
}

// ParseSignals builds Signals from a pattern→meaning mapping.
// Patterns are sorted so the result does not depend on map iteration order.
func ParseSignals(m map[string]string) Signals {
	out := make(Signals, 0, len(m))
	for pattern, meaning := range m {
		if pattern == "" {
			continue
		}
		out = append(out, Signal{Pattern: pattern, Meaning: meaning})
	}
	slices.SortFunc(out, func(a, b Signal) int {
		return strings.Compare(a.Pattern, b.Pattern)
	})
	return out
}

// Match returns the first signal found in url.
func (s Signals) Match(url string) (Signal, bool) {
	for _, sig := range s {
		if strings.Contains(url, sig.Pattern) {
			return sig, true
		}
	}
	return Signal{}, false
}

// IsDirect reports whether url already points at playable media.
func (s Signals) IsDirect(url string) bool {
	if url == "" {
		return false
	}
	_, ok := s.Match(url)
	return ok
}
