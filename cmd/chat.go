package cmd

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abhisek/gilbot/internal/app"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the tutor in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd)
	},
}

func init() {
	chatCmd.Flags().String("session", "", "Session id to use (default: a new random id)")
}

// runChat builds the tutor and launches the TUI.
func runChat(cmd *cobra.Command) error {
	ctx := cmd.Context()
	rt, err := buildRuntime(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	sessionID, _ := cmd.Flags().GetString("session")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	rt.log.Info("chat session started", "session_id", sessionID)

	return app.Run(ctx, app.Options{Tutor: rt.tutor, SessionID: sessionID})
}
