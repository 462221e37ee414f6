/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cerebric/cerebric/pkg/model"
)

// cronParser accepts both 5- and 6-field UTC cron expressions (an optional
// leading seconds field), a superset of cron.ParseStandard as used by the
// teacher's isScheduleDue.
var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// IsDue reports whether job should fire at now, and the anomaly-free
// "misfire" case: a cron job whose computed fire time has already slipped
// past MisfireGrace is coalesced into firing now rather than waiting for
// the next matching tick, when Coalesce is set; otherwise it is skipped
// and rescheduled.
func IsDue(job model.Job, now time.Time) (bool, error) {
	switch job.Trigger.Kind {
	case model.TriggerOneShot:
		if job.Trigger.At == nil {
			return false, fmt.Errorf("one_shot trigger missing at time")
		}
		return !job.Trigger.At.After(now), nil

	case model.TriggerCron:
		next, err := NextRun(job, now)
		if err != nil || next.IsZero() {
			return false, err
		}
		return !next.After(now), nil

	default:
		return false, fmt.Errorf("unknown trigger kind %q", job.Trigger.Kind)
	}
}

// NextRun computes the next time job.Trigger would fire at or after
// anchor (job.NextRunAt if set, else job.CreatedAt).
func NextRun(job model.Job, now time.Time) (time.Time, error) {
	switch job.Trigger.Kind {
	case model.TriggerOneShot:
		if job.Trigger.At == nil {
			return time.Time{}, fmt.Errorf("one_shot trigger missing at time")
		}
		return *job.Trigger.At, nil

	case model.TriggerCron:
		schedule, err := cronParser.Parse(job.Trigger.CronExpr)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse cron expression %q: %w", job.Trigger.CronExpr, err)
		}
		anchor := job.CreatedAt
		if job.NextRunAt != nil {
			anchor = (*job.NextRunAt).Add(-time.Second)
		}
		return schedule.Next(anchor), nil

	default:
		return time.Time{}, fmt.Errorf("unknown trigger kind %q", job.Trigger.Kind)
	}
}

// Misfired reports whether a due cron job has slipped past its configured
// misfire grace period, i.e. it is due by more than MisfireGrace.
func Misfired(job model.Job, dueAt, now time.Time) bool {
	return now.Sub(dueAt) > job.Trigger.MisfireGrace()
}
