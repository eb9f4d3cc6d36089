package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/VerminX/SanctuaryThree-sub004/internal/config"
	"github.com/VerminX/SanctuaryThree-sub004/internal/platform/rules"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the classification dictionary",
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Load and validate a rules dictionary",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("rules")
			if path == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				path = cfg.RulesFile
			}

			snap, err := rules.LoadFile(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			codes, prefixes, groups, terms := snap.Sizes()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "File:            %s\n", path)
			fmt.Fprintf(out, "Version:         %s\n", snap.Version())
			fmt.Fprintf(out, "Schema version:  %d\n", snap.SchemaVersion())
			fmt.Fprintf(out, "ICD-10 codes:    %d\n", codes)
			fmt.Fprintf(out, "ICD-10 prefixes: %d\n", prefixes)
			fmt.Fprintf(out, "Synonym groups:  %d\n", groups)
			fmt.Fprintf(out, "LCD terms:       %d\n", terms)
			return nil
		},
	}
	checkCmd.Flags().String("rules", "", "Rules dictionary file (defaults to RULES_FILE)")
	cmd.AddCommand(checkCmd)
	return cmd
}
