// Package alerts re-runs saved searches on an interval and mails the
// results. Each alert runs in isolation; a bad one never blocks the rest.
package alerts

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"habita-engine/internal/domain"
	"habita-engine/internal/events"
	"habita-engine/internal/notify"
	"habita-engine/internal/scheduler"
	"habita-engine/internal/store"
)

const DefaultInterval = 6 * time.Hour

type SearchFunc func(ctx context.Context, c domain.Criteria) domain.SearchResult

type Runner struct {
	DB       *sql.DB
	Search   SearchFunc
	Mailer   notify.Mailer
	Hub      *events.Hub // optional
	Interval time.Duration
	Now      func() time.Time // for tests
}

// Start blocks until ctx is done; meant to run on its own goroutine.
func (r *Runner) Start(ctx context.Context) {
	scheduler.Every(ctx, r.interval(), "alerts", r.RunOnce)
}

// RunOnce walks every active alert. Alerts that ran within the interval
// are skipped so process restarts don't double-send.
func (r *Runner) RunOnce(ctx context.Context) error {
	actives, err := store.ListActiveAlerts(ctx, r.DB)
	if err != nil {
		return err
	}
	if len(actives) == 0 {
		return nil
	}

	log.Printf("[alerts] running %d active alerts", len(actives))
	for _, a := range actives {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if r.ranRecently(a) {
			continue
		}
		r.runOne(ctx, a)
	}
	return nil
}

func (r *Runner) runOne(ctx context.Context, a store.Alert) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[alerts] alert %d panicked: %v", a.ID, rec)
		}
	}()

	var c domain.Criteria
	if err := json.Unmarshal([]byte(a.Criteria), &c); err != nil {
		log.Printf("[alerts] alert %d has unreadable criteria: %v", a.ID, err)
		return
	}

	res := r.Search(ctx, c)
	if err := store.TouchAlertRun(ctx, r.DB, a.ID, r.now()); err != nil {
		log.Printf("[alerts] alert %d: %v", a.ID, err)
	}

	if len(res.Results) == 0 {
		log.Printf("[alerts] alert %d (%s): no matches", a.ID, a.Name)
		return
	}

	if err := r.Mailer.SendAlert(a.Email, a.Name, res.Results, res.Advisory); err != nil {
		log.Printf("[alerts] alert %d mail to %s failed: %v", a.ID, a.Email, err)
		return
	}
	log.Printf("[alerts] alert %d (%s): mailed %d listings to %s", a.ID, a.Name, len(res.Results), a.Email)

	if r.Hub != nil {
		r.Hub.Publish(events.MakeEvent("", events.TypeAlertRun, 1, map[string]any{
			"alert_id": a.ID,
			"matches":  len(res.Results),
		}))
	}
}

func (r *Runner) ranRecently(a store.Alert) bool {
	if a.LastRunAt == "" {
		return false
	}
	last, err := time.Parse(time.RFC3339, a.LastRunAt)
	if err != nil {
		return false
	}
	return r.now().Sub(last) < r.interval()
}

func (r *Runner) interval() time.Duration {
	if r.Interval > 0 {
		return r.Interval
	}
	return DefaultInterval
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
