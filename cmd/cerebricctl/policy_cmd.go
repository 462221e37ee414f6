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
	"gopkg.in/yaml.v3"

	"github.com/cerebric/cerebric/internal/policy"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Validate and inspect the policy document",
}

var policyValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Parse a policy document and report errors, if any",
	Long:  "Validates the policy file at path (or the configured Server.PolicyFile if path is omitted).",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := policyPath(args)
		if err != nil {
			return err
		}
		doc, err := policy.Load(path)
		if err != nil {
			return fmt.Errorf("invalid policy document: %w", err)
		}
		fmt.Printf("ok: %s (default_allow=%v, %d tool entries)\n", path, doc.DefaultAllow, len(doc.Tools))
		return nil
	},
}

var policyShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Print the parsed policy document",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := policyPath(args)
		if err != nil {
			return err
		}
		doc, err := policy.Load(path)
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(doc)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

func policyPath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.Server.PolicyFile, nil
}

func init() {
	policyCmd.AddCommand(policyValidateCmd, policyShowCmd)
}
