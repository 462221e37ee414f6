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

	"github.com/spf13/cobra"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and manage the memory store",
}

var memoryListCmd = &cobra.Command{
	Use:   "list <partition> <filename>",
	Short: "List the entries of one partition file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := openMemory(cfg)
		entries, err := store.ListEntries(args[0], args[1])
		if err != nil {
			return err
		}
		for _, e := range entries {
			b, err := json.Marshal(e)
			if err != nil {
				return err
			}
			fmt.Println(string(b))
		}
		return nil
	},
}

var memoryExportCmd = &cobra.Command{
	Use:   "export <profile> <path>",
	Short: "Export a profile's memory partition to a single JSONL file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := openMemory(cfg)
		if err := store.Export(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("exported profile %q to %s\n", args[0], args[1])
		return nil
	},
}

var memoryPurgeCmd = &cobra.Command{
	Use:   "purge <profile>",
	Short: "Delete a profile's memory partition (refused for protected partitions)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := openMemory(cfg)
		if err := store.Purge(args[0]); err != nil {
			return err
		}
		fmt.Printf("purged profile %q\n", args[0])
		return nil
	},
}

func init() {
	memoryCmd.AddCommand(memoryListCmd, memoryExportCmd, memoryPurgeCmd)
}
