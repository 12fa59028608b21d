package handlers

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/mattn/go-isatty"
)

// Color constants for terminal output
const (
	cRed     = "\u001b[91m"
	cGreen   = "\u001b[92m"
	cYellow  = "\u001b[93m"
	cBlue    = "\u001b[94m"
	cMagenta = "\u001b[95m"
	cCyan    = "\u001b[96m"
	cWhite   = "\u001b[97m"
	cReset   = "\u001b[0m"
)

// getStatusColor returns the appropriate color for HTTP status codes
func getStatusColor(status int, enableColors bool) string {
	if !enableColors {
		return ""
	}

	switch {
	case status >= 200 && status < 300:
		return cGreen
	case status >= 300 && status < 400:
		return cBlue
	case status >= 400 && status < 500:
		return cYellow
	default:
		return cRed
	}
}

// getMethodColor returns the appropriate color for HTTP methods
func getMethodColor(method string, enableColors bool) string {
	if !enableColors {
		return ""
	}

	switch method {
	case "GET":
		return cCyan
	case "POST":
		return cGreen
	case "PUT":
		return cYellow
	case "DELETE":
		return cRed
	case "PATCH":
		return cMagenta
	case "HEAD":
		return cBlue
	case "OPTIONS":
		return cWhite
	default:
		return cReset
	}
}

// SamplingLogger creates an access-log middleware that samples the status
// polling endpoint. The UI polls /v1/git/status continuously; logging one
// request in ten keeps the log readable.
func SamplingLogger() fiber.Handler {
	var statusCounter uint64
	var counterMu sync.Mutex

	enableColors := isatty.IsTerminal(os.Stdout.Fd()) && os.Getenv("NO_COLOR") != "1" && os.Getenv("TERM") != "dumb"

	defaultLogger := logger.New(logger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}\n",
	})

	return func(c *fiber.Ctx) error {
		if c.Path() == "/v1/git/status" {
			counterMu.Lock()
			statusCounter++
			currentCount := statusCounter
			counterMu.Unlock()

			if currentCount == 10 {
				start := time.Now()
				err := c.Next()
				duration := time.Since(start)

				status := c.Response().StatusCode()
				method := c.Method()

				statusColor := getStatusColor(status, enableColors)
				methodColor := getMethodColor(method, enableColors)
				resetColor := ""
				if enableColors {
					resetColor = cReset
				}

				// Same format as the default logger line
				fmt.Printf("%s | %s%d%s | %13s | %s | %s%s%s | %s | - [sampled: %d calls]\n",
					time.Now().Format("15:04:05"),
					statusColor,
					status,
					resetColor,
					duration,
					c.IP(),
					methodColor,
					method,
					resetColor,
					c.Path(),
					currentCount)

				counterMu.Lock()
				statusCounter = 0
				counterMu.Unlock()

				return err
			}

			return c.Next()
		}

		return defaultLogger(c)
	}
}
