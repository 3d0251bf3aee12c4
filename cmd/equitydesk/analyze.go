package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"EquityDesk/internal/model"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze TICKER",
	Short: "Run one analysis in the foreground and print the task record as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, log, false)
		if err != nil {
			return err
		}
		defer a.close()

		rec := a.orch.Submit(strings.ToUpper(strings.TrimSpace(args[0])))
		a.orch.Wait()

		final, err := a.registry.Get(rec.TaskID)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(final, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		if final.Status == model.StatusError {
			return fmt.Errorf("analysis failed: %s", final.Error)
		}
		return nil
	},
}
