/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cerebric/cerebric/pkg/model"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Inspect and manage scheduled jobs",
}

var schedulerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every known job",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sched, err := openScheduler(cfg, noopLogger())
		if err != nil {
			return err
		}
		for _, job := range sched.List() {
			fmt.Printf("%s\t%-10s\t%-9s\tpriority=%d\tretries=%d/%d\n", job.ID, job.Task, job.State, job.Priority, job.RetryCount, job.MaxRetries)
		}
		return nil
	},
}

var (
	addTask       string
	addCron       string
	addAt         string
	addInputsJSON string
	addPriority   int
	addMaxRetries int
	addTimeoutSec int
)

var schedulerAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Schedule a new job",
	Long: `Schedule a new job, either recurring (--cron) or one-shot (--at, RFC3339).
Exactly one of --cron or --at must be given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (addCron == "") == (addAt == "") {
			return fmt.Errorf("exactly one of --cron or --at must be set")
		}

		inputs := map[string]any{}
		if addInputsJSON != "" {
			if err := json.Unmarshal([]byte(addInputsJSON), &inputs); err != nil {
				return fmt.Errorf("parse --inputs as JSON: %w", err)
			}
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sched, err := openScheduler(cfg, noopLogger())
		if err != nil {
			return err
		}

		var job model.Job
		if addCron != "" {
			job, err = sched.ScheduleCron(addTask, addCron, inputs, addPriority, addMaxRetries, addTimeoutSec)
		} else {
			at, perr := time.Parse(time.RFC3339, addAt)
			if perr != nil {
				return fmt.Errorf("parse --at as RFC3339: %w", perr)
			}
			job, err = sched.ScheduleOneTime(addTask, at, inputs, addPriority, addMaxRetries, addTimeoutSec)
		}
		if err != nil {
			return err
		}
		fmt.Printf("scheduled %s (%s)\n", job.ID, job.Task)
		return nil
	},
}

var schedulerCancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Cancel a pending or running job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sched, err := openScheduler(cfg, noopLogger())
		if err != nil {
			return err
		}
		prev := ""
		for _, j := range sched.List() {
			if j.ID == args[0] {
				prev = string(j.State)
			}
		}
		job, err := sched.Cancel(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("cancelled %s (was %s)\n", job.ID, prev)
		return nil
	},
}

var schedulerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize job counts by state",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sched, err := openScheduler(cfg, noopLogger())
		if err != nil {
			return err
		}
		counts := map[model.JobState]int{}
		for _, job := range sched.List() {
			counts[job.State]++
		}
		for _, state := range []model.JobState{model.JobPending, model.JobRunning, model.JobCompleted, model.JobFailed, model.JobCancelled, model.JobSkipped, model.JobRejected} {
			fmt.Printf("%-10s %d\n", state, counts[state])
		}
		return nil
	},
}

func init() {
	schedulerAddCmd.Flags().StringVar(&addTask, "task", "", "registered task name (required)")
	schedulerAddCmd.Flags().StringVar(&addCron, "cron", "", "cron expression for a recurring job")
	schedulerAddCmd.Flags().StringVar(&addAt, "at", "", "RFC3339 timestamp for a one-shot job")
	schedulerAddCmd.Flags().StringVar(&addInputsJSON, "inputs", "", "job inputs as a JSON object")
	schedulerAddCmd.Flags().IntVar(&addPriority, "priority", 0, "job priority")
	schedulerAddCmd.Flags().IntVar(&addMaxRetries, "max-retries", 0, "maximum retry attempts")
	schedulerAddCmd.Flags().IntVar(&addTimeoutSec, "timeout", 0, "execution timeout in seconds")
	schedulerAddCmd.MarkFlagRequired("task")

	schedulerCmd.AddCommand(schedulerListCmd, schedulerAddCmd, schedulerCancelCmd, schedulerStatusCmd)
}
