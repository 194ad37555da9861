// Package jobs runs background work: queued one-off jobs on a worker pool and
// periodic jobs on a cron scheduler.
package jobs

// Job is compatible with cron.Job and carries a readable name for logs.
type Job interface {
	Run()
	Name() string
}
