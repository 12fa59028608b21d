package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"

	_ "github.com/hong-ai/hong/docs"
	"github.com/hong-ai/hong/internal/config"
	"github.com/hong-ai/hong/internal/git"
	"github.com/hong-ai/hong/internal/handlers"
	"github.com/hong-ai/hong/internal/logger"
	"github.com/hong-ai/hong/internal/middleware"
	"github.com/hong-ai/hong/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "📡 Start the workspace daemon",
	Long: `# 📡 Hóng Daemon

**Start the HTTP daemon the desktop shell talks to.**

## 🌐 Endpoints

- **/v1/git** - worktree lifecycle, diffs, checkpoints and rollback
- **/v1/chats** - chat records bound to worktrees
- **/v1/terminal** - pty-backed shells over websockets
- **/v1/events** - server-sent events stream for the UI

## ⚙️  Configuration

- **HONG_PORT** - listen port (default 8787)
- **HONG_STATE_DIR** - daemon state root (default ~/.hong)
- **HONG_AUTH_SECRET** - when set, every request needs a signed token
- **HONG_LOG_LEVEL** - debug, info, warn or error`,
	RunE: runServe,
}

var (
	servePort    int
	serveVerbose bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (defaults to HONG_PORT or 8787)")
	serveCmd.Flags().BoolVarP(&serveVerbose, "verbose", "v", false, "Enable debug logging")
}

func runServe(cmd *cobra.Command, args []string) error {
	logLevel := logger.GetLogLevelFromEnv(config.Runtime.IsDev() || serveVerbose)
	logger.Configure(logLevel, config.Runtime.IsDev())

	manager := git.NewWorktreeManager()
	events := handlers.NewEventsHandler()
	terminals := services.NewTerminalManager()
	watchers := services.NewWatcherRegistry()
	chats := services.NewChatStateManager(config.Runtime.StateDir, events)
	workspace := services.NewWorkspaceService(chats, manager, terminals, watchers, events)

	app := fiber.New(fiber.Config{
		AppName:               "hong " + Version,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(compress.New())
	app.Use(handlers.SamplingLogger())

	auth := middleware.NewAuthMiddleware()
	if auth == nil {
		logger.Warn("HONG_AUTH_SECRET not set, requests are not authenticated")
	}
	// RequireAuth passes everything through when auth is nil
	app.Use(auth.RequireAuth)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": Version})
	})
	app.Get("/swagger/*", swagger.HandlerDefault)

	v1 := app.Group("/v1")
	gitHandler := handlers.NewGitHandler(workspace)
	gitHandler.RegisterRoutes(v1)
	handlers.NewChatsHandler(chats).RegisterRoutes(v1)
	handlers.NewTerminalHandler(terminals).RegisterRoutes(v1)
	handlers.NewAuthHandler(auth).RegisterRoutes(v1)
	events.RegisterRoutes(v1)

	port := servePort
	if port == 0 {
		port = config.Runtime.Port
	}
	// The daemon only ever serves the local desktop shell
	addr := fmt.Sprintf("127.0.0.1:%d", port)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("📡 Hóng daemon listening on http://%s", addr)
		errCh <- app.Listen(addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Infof("Received %s, shutting down...", sig)
	}

	gitHandler.StopWatches()
	watchers.DisposeAll()
	terminals.Stop()
	events.Stop()

	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		logger.Errorf("Shutdown did not complete cleanly: %v", err)
		return err
	}
	logger.Info("✅ Daemon stopped")
	return nil
}
