package utils

import (
	"context"
	"strconv"
	"time"
)

// WithTimeout runs a function with given timeout
func WithTimeout(ctx context.Context, timeout time.Duration, f func(ctx2 context.Context)) {
	ctx2, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	f(ctx2)
}

// Atoi parses s, returns def when s is empty or malformed
func Atoi(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
