package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"signalpost/internal/signal"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Compile next week's posting schedule from approved drafts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		drafts, err := signal.ApprovedDrafts(cmd.Context(), a.store)
		if err != nil {
			return fmt.Errorf("load approved drafts: %w", err)
		}

		schedule := signal.CompileWeek(drafts, time.Now(), a.cfg.MaxPostsPerDay)
		if schedule.Message != "" {
			fmt.Println(schedule.Message)
			return nil
		}
		fmt.Print(signal.FormatSchedule(schedule))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}
