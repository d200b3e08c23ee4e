package websocket

import (
	"context"
	"time"

	"jobboard/jobs"
	"jobboard/models"

	"go.uber.org/zap"
)

type Board interface {
	ListPublic(ctx context.Context, filter jobs.Filter) ([]models.JobListing, error)
}

// RunBoardRefresher recomputes the public board every interval and sends it
// to connected clients as a "board_refresh" frame. Postings whose deadline
// passed since the last tick drop out this way. It returns when ctx is done.
func RunBoardRefresher(ctx context.Context, board Board, m *Manager, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refreshBoard(ctx, board, m, logger)
		}
	}
}

func refreshBoard(ctx context.Context, board Board, m *Manager, logger *zap.Logger) {
	if m.ConnectedClients() == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	listings, err := board.ListPublic(ctx, jobs.Filter{})
	if err != nil {
		logger.Warn("board refresh failed", zap.Error(err))
		return
	}
	m.Broadcast("board_refresh", listings, nil)
}
