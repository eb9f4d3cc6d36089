package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/VerminX/SanctuaryThree-sub004/internal/config"
	"github.com/VerminX/SanctuaryThree-sub004/internal/domain/lcd"
	"github.com/VerminX/SanctuaryThree-sub004/internal/domain/woundcare"
	"github.com/VerminX/SanctuaryThree-sub004/internal/platform/rules"
)

func assessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Assess a wound episode bundle from a JSON file without a database",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			asOfFlag, _ := cmd.Flags().GetString("as-of")
			rulesFile, _ := cmd.Flags().GetString("rules")

			if input == "" {
				return fmt.Errorf("--input is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())

			bundle, err := readBundle(input)
			if err != nil {
				return err
			}

			var asOf time.Time
			if asOfFlag != "" {
				asOf, err = time.Parse("2006-01-02", asOfFlag)
				if err != nil {
					return fmt.Errorf("--as-of must be YYYY-MM-DD: %w", err)
				}
			}

			provider, err := offlineProvider(rulesFile, logger)
			if err != nil {
				return err
			}

			svc := lcd.NewService(nil, nil, nil, lcd.NewEngine(provider, logger))
			res, err := svc.Assess(cmd.Context(), bundle, asOf)
			if err != nil {
				return fmt.Errorf("invalid bundle: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().String("input", "", "Path to a JSON bundle {episode, encounters, documented_exceptions}, or - for stdin")
	cmd.Flags().String("as-of", "", "Evaluation date (YYYY-MM-DD), defaults to today")
	cmd.Flags().String("rules", "", "Rules dictionary file; built-in rules are used when empty")
	return cmd
}

func readBundle(path string) (*woundcare.Bundle, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var b woundcare.Bundle
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	return &b, nil
}

// offlineProvider loads path once. An empty path yields a provider with no
// snapshot, which makes the engine use its built-in rules.
func offlineProvider(path string, logger zerolog.Logger) (rules.Provider, error) {
	if path == "" {
		return rules.NewStaticProvider(nil), nil
	}
	snap, err := rules.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	logger.Debug().Str("version", snap.Version()).Msg("rules dictionary loaded")
	return rules.NewStaticProvider(snap), nil
}
