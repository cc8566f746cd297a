package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

type Purger interface {
	PurgeNotificationsBefore(ctx context.Context, before time.Time) (int, error)
}

var (
	mDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blog_cleanup_notifications_deleted_total", Help: "Notifications removed by the cleanup job",
	})
	mErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blog_cleanup_errors_total", Help: "Failed cleanup runs",
	})
	mRunDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "blog_cleanup_run_duration_seconds", Help: "Cleanup run duration",
		Buckets: prometheus.DefBuckets,
	})
)

// Runner deletes notifications older than Retention, once on Run and then
// every Interval until the context ends.
type Runner struct {
	log       *zap.Logger
	purger    Purger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

func New(log *zap.Logger, p Purger, interval, retention time.Duration) *Runner {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Runner{
		log:       log,
		purger:    p,
		interval:  interval,
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RunOnce performs a single purge. Errors are logged and returned, never fatal.
func (r *Runner) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() { mRunDur.Observe(time.Since(start).Seconds()) }()

	before := r.now().Add(-r.retention)
	ctxPurge, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	n, err := r.purger.PurgeNotificationsBefore(ctxPurge, before)
	if err != nil {
		mErr.Inc()
		r.log.Error("Error occurred while deleting old notifications", zap.Error(err))
		return 0, err
	}

	days := int(r.retention / (24 * time.Hour))
	if n > 0 {
		mDeleted.Add(float64(n))
		r.log.Info(fmt.Sprintf("Deleted %d notifications older than %d days.", n, days),
			zap.Time("before", before))
	} else {
		r.log.Info(fmt.Sprintf("No notifications older than %d days to delete.", days))
	}
	return n, nil
}

func (r *Runner) Run(ctx context.Context) error {
	_, _ = r.RunOnce(ctx)

	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			_, _ = r.RunOnce(ctx)
		}
	}
}
