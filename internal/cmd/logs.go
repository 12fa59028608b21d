package cmd

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hong-ai/hong/internal/config"
)

var logsCmd = &cobra.Command{
	Use:   "logs <command...>",
	Short: "📋 Run a command while teeing its output to a log file",
	Long: `# 📋 Run With Logging

**Run any command while streaming output to both the console and a timestamped log file.**

Useful for dev servers and builds running inside a workspace: the console
stays live while the full output lands in a file the desktop app can open
later.

## 📁 Log Files

Logs are saved under the state directory:
- **~/.hong/logs/<command>-YYYYMMDD-HHMMSS.log** - Timestamped log file
- **~/.hong/logs/<command>-latest.log** - Symlink to the most recent run

## 💡 Examples

` + "```bash\nhong logs pnpm run dev\nhong logs make test\ntail -f ~/.hong/logs/pnpm-latest.log\n```",
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runWithLogging(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(logsCmd)
}

func runWithLogging(args []string) error {
	logsDir := filepath.Join(config.Runtime.StateDir, "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	commandName := filepath.Base(args[0])
	logFile := filepath.Join(logsDir, fmt.Sprintf("%s-%s.log", commandName, timestamp))
	latestSymlink := filepath.Join(logsDir, fmt.Sprintf("%s-latest.log", commandName))

	file, err := os.Create(logFile)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer file.Close()

	// Repoint the latest symlink at this run
	_ = os.Remove(latestSymlink)
	if err := os.Symlink(filepath.Base(logFile), latestSymlink); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to create symlink: %v\n", err)
	}

	fmt.Printf("📋 Logging to: %s\n", logFile)
	fmt.Printf("🖥️  Command: %s\n", strings.Join(args, " "))
	fmt.Println("---")

	command := exec.Command(args[0], args[1:]...)

	stdout, err := command.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := command.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := command.Start(); err != nil {
		return fmt.Errorf("failed to start command: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			line := scanner.Text()
			fmt.Println(line)
			if _, err := fmt.Fprintln(file, line); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing to log file: %v\n", err)
			}
		}
	}()

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			line := scanner.Text()
			fmt.Fprintln(os.Stderr, line)
			if _, err := fmt.Fprintln(file, line); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing to log file: %v\n", err)
			}
		}
	}()

	go func() {
		done <- command.Wait()
	}()

	select {
	case sig := <-sigChan:
		fmt.Printf("\n🛑 Received signal %v, terminating command...\n", sig)
		if command.Process != nil {
			_ = command.Process.Signal(sig)
		}
		return <-done
	case err := <-done:
		if err != nil {
			fmt.Printf("\n❌ Command exited with error: %v\n", err)
		} else {
			fmt.Printf("\n✅ Command completed\n")
		}
		return err
	}
}
