package helpers

import (
	"context"
	"math"
	"time"
)

func IsContextDone(ctx context.Context) bool {
	if ctx == nil {
		return true
	}
	select {
	case <-ctx.Done():
		return true
	default:
	}
	return false
}

// WithTimeout bounds a store call; a non-positive timeout leaves ctx unbounded
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// PlaceholderName is shown when the submitter profile cannot be resolved
func PlaceholderName(userID string) string {
	short := userID
	if len(short) > 8 {
		short = short[:8]
	}
	return "User " + short
}

func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

func StringPtr(s string) *string {
	return &s
}

func DerefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func UniqueStrings(values ...string) []string {
	seen := map[string]bool{}
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
	}
	return result
}
