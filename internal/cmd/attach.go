package cmd

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hong-ai/hong/internal/config"
	"github.com/hong-ai/hong/internal/middleware"
)

var attachCmd = &cobra.Command{
	Use:   "attach <session-id>",
	Short: "🐚 Attach to a terminal session",
	Long: `# 🐚 Attach

**Attach the current terminal to a running daemon shell session.**

Connects to the session's websocket, puts stdin in raw mode and wires the
two together. Detach with the shell's own exit.

## 🔑 Authentication

When **HONG_AUTH_SECRET** is set in the environment, a short-lived token is
minted locally and sent with the connection.`,
	Args: cobra.ExactArgs(1),
	RunE: runAttach,
}

var attachURL string

func init() {
	rootCmd.AddCommand(attachCmd)

	attachCmd.Flags().StringVar(&attachURL, "url", "", "Daemon base URL (defaults to http://127.0.0.1:$HONG_PORT)")
}

func runAttach(cmd *cobra.Command, args []string) error {
	sessionID := args[0]

	base := attachURL
	if base == "" {
		base = fmt.Sprintf("http://127.0.0.1:%d", config.Runtime.Port)
	}
	u, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("invalid daemon url %q: %w", base, err)
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = fmt.Sprintf("/v1/terminal/%s/ws", sessionID)

	// The local CLI holds the same secret the daemon was spawned with
	if os.Getenv("HONG_AUTH_SECRET") != "" {
		token, err := middleware.GenerateToken("cli", time.Hour)
		if err != nil {
			return err
		}
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to session %s: %w", sessionID, err)
	}
	defer conn.Close()

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to make stdin raw: %w", err)
	}
	defer func() {
		if err := term.Restore(int(os.Stdin.Fd()), oldState); err != nil {
			fmt.Fprintf(os.Stderr, "attach: failed to restore terminal: %v\n", err)
		}
	}()

	// gorilla connections allow one concurrent writer
	var writeMu sync.Mutex
	send := func(messageType int, data []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteMessage(messageType, data)
	}

	sendResize := func() {
		cols, rows, err := term.GetSize(int(os.Stdin.Fd()))
		if err != nil {
			return
		}
		msg, _ := json.Marshal(map[string]interface{}{
			"type": "resize",
			"cols": cols,
			"rows": rows,
		})
		_ = send(websocket.TextMessage, msg)
	}

	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	defer signal.Stop(winch)
	go func() {
		for range winch {
			sendResize()
		}
	}()
	winch <- syscall.SIGWINCH // push the initial size

	// stdin goes to the session as raw binary frames
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				if err := send(websocket.BinaryMessage, buf[:n]); err != nil {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	// Session output comes back as binary frames until the shell exits
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		}
		if messageType == websocket.BinaryMessage || messageType == websocket.TextMessage {
			os.Stdout.Write(data)
		}
	}
}
