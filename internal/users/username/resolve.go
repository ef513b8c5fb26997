// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package username

import (
	"context"
	"fmt"
	"strconv"
)

// ResolveAvailable returns base if it is free, otherwise base followed by the
// smallest numeric suffix that is free (john, john1, john2, ...).
//
// The answer is advisory: a concurrent registration may claim it before the
// caller's [Index.Reserve], which then fails with [ErrUsernameTaken].
func ResolveAvailable(ctx context.Context, index Index, base string) (string, error) {
	for attempt := 0; attempt <= MaxSuffixAttempts; attempt++ {
		candidate := base
		if attempt > 0 {
			candidate = base + strconv.Itoa(attempt)
		}

		available, err := index.IsAvailable(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("username_resolve_check: %w", err)
		}

		if available {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: base %q", ErrUsernameGenerationFailed, base)
}
