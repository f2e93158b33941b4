package taskdesk

import (
	"fmt"
	"strings"
	"time"
)

// Logger is satisfied by hclog.Logger; args are key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds gate options
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() time.Duration
	GetIssuer() string
	GetCookieSecure() bool
	GetReturnToTTL() time.Duration
	GetPendingTTL() time.Duration
	GetLandingPath() string
	GetLoginPath() string
	GetPublicRoot() string
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print(line("ERR", msg, args))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Print(line("WRN", msg, args))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print(line("INF", msg, args))
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print(line("DBG", msg, args))
}

// line renders msg followed by key=value pairs, the shape hclog uses.
func line(level, msg string, args []any) string {
	var b strings.Builder
	b.WriteString("[" + level + "] TASKDESK " + msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " EXTRA=%v", args[i])
		}
	}
	b.WriteString("\n")
	return b.String()
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}
