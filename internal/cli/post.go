package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"signalpost/internal/poster"
	"signalpost/internal/signal"
)

var postCmd = &cobra.Command{
	Use:   "post <draft-id>",
	Short: "Publish one approved draft to X",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		id := args[0]
		doc, err := a.store.Get(cmd.Context(), signal.CollectionDrafts, id)
		if err != nil {
			return fmt.Errorf("load draft: %w", err)
		}
		if doc == nil {
			return fmt.Errorf("draft %s not found", id)
		}
		draft, err := signal.DraftFromFields(doc)
		if err != nil {
			return err
		}
		if draft.Status != signal.StatusApproved {
			return fmt.Errorf("draft %s is %s, only approved drafts can be posted", id, draft.Status)
		}
		if _, posted := doc["posted_at"]; posted {
			return fmt.Errorf("draft %s was already posted", id)
		}

		text := draft.Content
		if draft.HumanLines != "" {
			text += "\n\n" + draft.HumanLines
		}

		client := poster.NewClient(poster.Credentials{
			APIKey:       a.cfg.PosterAPIKey,
			APISecret:    a.cfg.PosterAPISecret,
			AccessToken:  a.cfg.PosterAccessToken,
			AccessSecret: a.cfg.PosterAccessSecret,
		}, a.cfg.HardCharLimit, a.log)

		result := client.Post(cmd.Context(), text)
		if !result.Success {
			return fmt.Errorf("posting draft %s: %s", id, result.Error)
		}

		fields := map[string]any{
			"posted_at": time.Now().UTC().Format(time.RFC3339),
			"post_id":   result.PostID,
			"post_url":  result.URL,
		}
		if err := a.store.UpsertMerge(cmd.Context(), signal.CollectionDrafts, id, fields); err != nil {
			return fmt.Errorf("recording post for draft %s: %w", id, err)
		}

		fmt.Printf("posted %s: %s\n", id, result.URL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(postCmd)
}
