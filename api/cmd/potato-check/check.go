package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"potato-check/api/internal/gemini"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the API key and model against the Gemini API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.GeminiAPIKey == "" {
			return errors.New("GOOGLE_API_KEY is not set")
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		info, err := gemini.Probe(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return fmt.Errorf("error checking Gemini model: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "model:        %s\n", info.Name)
		fmt.Fprintf(cmd.OutOrStdout(), "display name: %s\n", info.DisplayName)
		fmt.Fprintf(cmd.OutOrStdout(), "input limit:  %d tokens\n", info.InputTokenLimit)
		fmt.Fprintf(cmd.OutOrStdout(), "output limit: %d tokens\n", info.OutputTokenLimit)
		return nil
	},
}
