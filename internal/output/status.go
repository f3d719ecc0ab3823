package output

import (
	"context"
	"fmt"
	"time"
)

func StatusBar(ctx context.Context, refreshRate time.Duration, printF func()) {
	ticker := time.NewTicker(refreshRate)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			printF()
		case <-ctx.Done():
			return
		}
	}
}

func PrettySamplingStatus(done, total int) string {
	percent := 0
	if total > 0 {
		percent = done * 100 / total
	}

	return fmt.Sprintf("Sampling: [%s] %3d%% (%d/%d ticks)", ProgressBar(percent, 40), percent, done, total)
}
