package services

import (
	"context"
	"sync"
	"time"

	"github.com/amaumene/gostremiocatalog/internal/constants"
	"github.com/amaumene/gostremiocatalog/pkg/logger"
)

// SweepFunc removes expired entries from one store and returns how many it removed.
type SweepFunc func() (int, error)

type sweepTask struct {
	name  string
	sweep SweepFunc
}

// CleanupService periodically sweeps expired cache entries from stores that
// do not expire them on their own.
type CleanupService struct {
	logger   logger.Logger
	interval time.Duration
	tasks    []sweepTask
	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	done     chan struct{}
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(log logger.Logger) *CleanupService {
	return &CleanupService{
		logger:   log,
		interval: constants.CacheCleanupInterval,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// SetInterval sets how often cleanup runs
func (c *CleanupService) SetInterval(duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if duration > 0 {
		c.interval = duration
	}
}

// AddTask registers a store to sweep. Must be called before Start.
func (c *CleanupService) AddTask(name string, sweep SweepFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = append(c.tasks, sweepTask{name: name, sweep: sweep})
}

// Start begins the cleanup service
func (c *CleanupService) Start(ctx context.Context) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	interval := c.interval
	c.mu.Unlock()

	c.logger.Infof("[Cleanup] starting with interval: %v", interval)
	go c.cleanupLoop(ctx, interval)
}

// Stop stops the cleanup service and waits for the loop to exit.
func (c *CleanupService) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.stopChan)
	c.mu.Unlock()

	<-c.done
	c.logger.Infof("[Cleanup] stopped")
}

func (c *CleanupService) cleanupLoop(ctx context.Context, interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.CleanupNow()
		}
	}
}

// CleanupNow sweeps every registered store once and returns the total removed.
func (c *CleanupService) CleanupNow() int {
	c.mu.Lock()
	tasks := append([]sweepTask(nil), c.tasks...)
	c.mu.Unlock()

	total := 0
	for _, task := range tasks {
		removed, err := task.sweep()
		if err != nil {
			c.logger.Warnf("[Cleanup] failed to sweep %s: %v", task.name, err)
			continue
		}
		if removed > 0 {
			c.logger.Debugf("[Cleanup] removed %d expired entries from %s", removed, task.name)
		}
		total += removed
	}
	return total
}
