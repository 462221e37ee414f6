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
	"os/user"

	"github.com/spf13/cobra"
)

var autonomyCmd = &cobra.Command{
	Use:   "autonomy",
	Short: "Inspect and control the safe-mode autonomy flag",
}

var autonomyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether safe mode is active",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sm := openSafeMode(cfg, noopLogger())
		if sm.IsActive() {
			fmt.Printf("safe_mode: active (reason: %s)\n", sm.Reason())
		} else {
			fmt.Println("safe_mode: inactive")
		}
		return nil
	},
}

var safeModeEnterReason string

var autonomySafeModeEnterCmd = &cobra.Command{
	Use:   "safe-mode-enter",
	Short: "Manually enter safe mode, pausing all autonomous execution",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sm := openSafeMode(cfg, noopLogger())
		reason := safeModeEnterReason
		if reason == "" {
			reason = "manually entered via cerebricctl"
		}
		if err := sm.Enter(reason); err != nil {
			return err
		}
		fmt.Println("safe mode entered")
		return nil
	},
}

var safeModeExitUser string

var autonomySafeModeExitCmd = &cobra.Command{
	Use:   "safe-mode-exit",
	Short: "Exit safe mode, resuming autonomous execution",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sm := openSafeMode(cfg, noopLogger())
		who := safeModeExitUser
		if who == "" {
			if u, err := user.Current(); err == nil {
				who = u.Username
			} else {
				who = "unknown"
			}
		}
		if _, err := sm.Exit(who); err != nil {
			return err
		}
		fmt.Println("safe mode exited")
		return nil
	},
}

func init() {
	autonomySafeModeEnterCmd.Flags().StringVar(&safeModeEnterReason, "reason", "", "reason recorded on the safe-mode marker")
	autonomySafeModeExitCmd.Flags().StringVar(&safeModeExitUser, "user", "", "identity recorded as having exited safe mode")
	autonomyCmd.AddCommand(autonomyStatusCmd, autonomySafeModeEnterCmd, autonomySafeModeExitCmd)
}
