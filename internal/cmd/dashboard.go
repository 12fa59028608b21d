package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hong-ai/hong/internal/config"
	"github.com/hong-ai/hong/internal/middleware"
	"github.com/hong-ai/hong/internal/tui"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "🔍 Live terminal dashboard for the daemon",
	Long: `# 🔍 Dashboard

**Watch chats, worktrees and terminals from the comfort of your terminal.**

Connects to the running daemon, subscribes to its event stream and shows:

- 💬 Chats with their branches and dirty state
- 🌿 Which worktrees have a live change watcher
- 🐚 Open terminal sessions and their titles
- 📡 The live event feed

Press **r** to rename the selected chat's branch in place.`,
	RunE: runDashboard,
}

var dashboardURL string

func init() {
	rootCmd.AddCommand(dashboardCmd)

	dashboardCmd.Flags().StringVar(&dashboardURL, "url", "", "Daemon base URL (defaults to http://127.0.0.1:$HONG_PORT)")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	base := dashboardURL
	if base == "" {
		base = fmt.Sprintf("http://127.0.0.1:%d", config.Runtime.Port)
	}

	// The local CLI holds the same secret the daemon was spawned with
	token := ""
	if os.Getenv("HONG_AUTH_SECRET") != "" {
		minted, err := middleware.GenerateToken("cli", 12*time.Hour)
		if err != nil {
			return err
		}
		token = minted
	}

	return tui.Run(base, token, Version)
}
