//go:build integration

package testutil

import (
	"context"
	"time"
)

// CleanAll empties every table the service writes to.
func (env *TestEnv) CleanAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := env.Pool.Exec(ctx, "TRUNCATE TABLE referee_outbox, referees"); err != nil {
		env.t.Logf("CleanAll: %v", err)
	}
}
