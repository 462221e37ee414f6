/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var approvalCmd = &cobra.Command{
	Use:   "approval",
	Short: "Review and decide pending approval requests",
}

var approvalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending approval requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		mgr := openApproval(cfg, noopLogger())
		reqs, err := mgr.ListPending()
		if err != nil {
			return err
		}
		if len(reqs) == 0 {
			fmt.Println("no pending approval requests")
			return nil
		}
		for _, r := range reqs {
			fmt.Printf("%s\t%-10s\t%-8s\trisk=%-6s confidence=%.2f expires=%s\n",
				r.ID, r.Task, r.Action, r.Risk, r.Confidence, r.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"))
		}
		return nil
	},
}

var (
	decideBy     string
	decideReason string
	decideTyped  string
)

var approvalApproveCmd = &cobra.Command{
	Use:   "approve <request-id>",
	Short: "Approve a pending request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		mgr := openApproval(cfg, noopLogger())
		req, err := mgr.Decide(args[0], true, decideBy, decideReason, decideTyped)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s\n", req.ID, req.Status)
		return nil
	},
}

var approvalRejectCmd = &cobra.Command{
	Use:   "reject <request-id>",
	Short: "Reject a pending request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		mgr := openApproval(cfg, noopLogger())
		req, err := mgr.Decide(args[0], false, decideBy, decideReason, "")
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s\n", req.ID, req.Status)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{approvalApproveCmd, approvalRejectCmd} {
		c.Flags().StringVar(&decideBy, "by", "cli", "identity recorded as decided_by")
		c.Flags().StringVar(&decideReason, "reason", "", "reason recorded alongside the decision")
	}
	approvalApproveCmd.Flags().StringVar(&decideTyped, "typed-confirmation", "", "typed confirmation token for high-risk requests")

	approvalCmd.AddCommand(approvalListCmd, approvalApproveCmd, approvalRejectCmd)
}
