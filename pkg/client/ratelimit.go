// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

package client

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// limitInfo carries the X-RateLimit headers of one reply. ok is false
// when the server sent no rate limit data.
type limitInfo struct {
	limit     int64
	remaining int64
	reset     int64 // epoch seconds
	ok        bool
}

func parseLimitHeaders(h http.Header) limitInfo {
	var info limitInfo
	limit, err1 := strconv.ParseInt(h.Get("X-RateLimit-Limit"), 10, 64)
	remaining, err2 := strconv.ParseInt(h.Get("X-RateLimit-Remaining"), 10, 64)
	reset, err3 := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return info
	}
	info.limit = limit
	info.remaining = remaining
	info.reset = reset
	info.ok = true
	return info
}

// rateLimiter is the adaptive self-throttling schedule. One instance is
// shared by every in-flight request of a client; the state is a single
// nonnegative sleep interval, adjusted after each reply and waited out
// before the next request.
//
// The schedule is deliberately non-atomic across concurrent replies:
// an occasional overshoot is corrected by whichever reply lands next.
type rateLimiter struct {
	mu     sync.Mutex
	sleep  time.Duration
	now    func() time.Time
	after  func(time.Duration) <-chan time.Time
	logger *slog.Logger
}

func newRateLimiter(logger *slog.Logger) *rateLimiter {
	return &rateLimiter{now: time.Now, after: time.After, logger: logger}
}

// markSuccess resets the pace after a good reply, unless the server
// advertises a depleting window. While more than 60% of the window's
// budget remains the pace stays free; below that the sleep grows as
// (window / remaining) · (0.4 + remaining/limit)^-1.5: the per-request
// share of the window times a factor ramping from 1 to about 4 as the
// budget empties. A spent budget waits
// out the whole window. The constants come from tuning against the
// production archive.
func (rl *rateLimiter) markSuccess(info limitInfo) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.sleep = 0
	if !info.ok {
		return
	}
	window := time.Unix(info.reset, 0).Sub(rl.now())
	if window <= 0 {
		return
	}
	if info.remaining <= 0 {
		// No credit left, sit out the window.
		rl.sleep = window
	} else {
		used := float64(info.remaining) / float64(info.limit)
		if used <= 0.6 {
			factor := math.Pow(0.4+used, -1.5)
			rl.sleep = time.Duration(float64(window) / float64(info.remaining) * factor)
		}
	}
	rl.logger.Debug("client.ratelimit.good",
		"remaining", info.remaining, "limit", info.limit,
		"reset_in", window.Seconds(), "sleep", rl.sleep.Seconds())
}

// markFailure slows the pace after a bad reply: wait out the advertised
// window with a 10% margin when the budget is spent, otherwise back off
// multiplicatively from a 1s floor.
func (rl *rateLimiter) markFailure(info limitInfo) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	timeSet := false
	if info.ok && info.remaining <= 0 {
		wait := time.Duration(1.1 * float64(time.Unix(info.reset, 0).Sub(rl.now())))
		if wait > 0 && wait >= rl.sleep {
			rl.sleep = wait
			timeSet = true
		}
	}
	if !timeSet {
		if rl.sleep <= 0 {
			rl.sleep = time.Second
		} else {
			rl.sleep *= 2
		}
	}
	rl.logger.Debug("client.ratelimit.bad", "sleep", rl.sleep.Seconds())
}

// wait blocks for the current sleep interval, or until the context is
// cancelled.
func (rl *rateLimiter) wait(ctx context.Context) error {
	rl.mu.Lock()
	sleep := rl.sleep
	rl.mu.Unlock()

	if sleep <= 0 {
		return ctx.Err()
	}
	observeRateLimitSleep(sleep)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-rl.after(sleep):
		return nil
	}
}
