/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// cerebricctl is the operator-facing CLI: it reads cerebricd's on-disk
// state directly (the scheduler store, the approval queue, the memory
// store, the policy document, the safe-mode marker) rather than talking to
// a remote API, since cerebricd is a single local daemon and its state
// directory is just as reachable from the CLI process as from the daemon
// itself. Grounded on the teacher's cobra-based legatorctl command tree,
// one file per subcommand group.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configDirFlag string

var rootCmd = &cobra.Command{
	Use:   "cerebricctl",
	Short: "Operate a running cerebricd supervisor",
	Long: `cerebricctl inspects and controls a cerebricd supervisor's on-disk
state: the job schedule, pending approvals, the policy document, the
memory store, and the autonomy/safe-mode flag.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "directory holding config.yaml (defaults to $XDG_CONFIG_HOME/cerebric)")
	rootCmd.AddCommand(schedulerCmd)
	rootCmd.AddCommand(approvalCmd)
	rootCmd.AddCommand(policyCmd)
	rootCmd.AddCommand(memoryCmd)
	rootCmd.AddCommand(autonomyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
