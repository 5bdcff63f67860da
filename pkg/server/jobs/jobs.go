/* Copyright 2025 Folio Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package jobs runs the periodic maintenance of the server
package jobs

import (
	"github.com/folio-reader/folio/pkg/server/app"
	"github.com/folio-reader/folio/pkg/server/database"
	"github.com/folio-reader/folio/pkg/server/log"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
)

const (
	// PurgeSessionsSpec is the schedule of the expired session purge
	PurgeSessionsSpec = "@hourly"
	// CheckpointSpec is the schedule of the WAL checkpoint
	CheckpointSpec = "@every 5m"
)

// Job is a scheduled task
type Job struct {
	Name string
	Spec string
	Run  func() error
}

// Runner schedules the jobs and logs their failures
type Runner struct {
	cron *cron.Cron
	jobs []Job
}

// NewRunner returns a runner for the given jobs. It returns an error if a
// schedule cannot be parsed.
func NewRunner(jobs []Job) (*Runner, error) {
	c := cron.New()

	for _, j := range jobs {
		job := j
		if err := c.AddFunc(job.Spec, func() { run(job) }); err != nil {
			return nil, errors.Wrapf(err, "scheduling %s", job.Name)
		}
	}

	return &Runner{cron: c, jobs: jobs}, nil
}

func run(j Job) {
	if err := j.Run(); err != nil {
		log.WithFields(log.Fields{"job": j.Name}).ErrorWrap(err, "running job")
		return
	}

	log.WithFields(log.Fields{"job": j.Name}).Debug("ran job")
}

// Start runs the scheduler in the background
func (r *Runner) Start() {
	r.cron.Start()
}

// Stop stops the scheduler. Jobs already running are not interrupted.
func (r *Runner) Stop() {
	r.cron.Stop()
}

// RunAll runs every job once, in order
func (r *Runner) RunAll() {
	for _, j := range r.jobs {
		run(j)
	}
}

// Default returns the maintenance jobs of the app
func Default(a *app.App) []Job {
	ret := []Job{
		{
			Name: "purge_sessions",
			Spec: PurgeSessionsSpec,
			Run: func() error {
				n, err := a.PurgeExpiredSessions()
				if err != nil {
					return err
				}
				if n > 0 {
					log.WithFields(log.Fields{"count": n}).Info("purged expired sessions")
				}

				return nil
			},
		},
	}

	if database.IsSQLite(a.DB) {
		ret = append(ret, Job{
			Name: "checkpoint",
			Spec: CheckpointSpec,
			Run: func() error {
				return database.Checkpoint(a.DB)
			},
		})
	}

	return ret
}
