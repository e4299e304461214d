// pkg/utils/utils.go
package utils

import (
	"log/slog"
)

// fdHeadroom is kept free for stdio, log files and DNS sockets.
const fdHeadroom = 100

// CheckFileDescriptorLimit warns if the worker count might exceed the open file limit.
// It returns false when the limit looks too low.
func CheckFileDescriptorLimit(logger *slog.Logger, workers int) bool {
	limit, ok := openFileLimit()
	if !ok {
		return true
	}
	if uint64(workers)+fdHeadroom >= limit {
		logger.Warn("Worker count is close to the file descriptor limit.", "workers", workers, "limit", limit)
		return false
	}
	return true
}
