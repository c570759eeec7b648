// Package logger builds the process-wide zerolog logger.
package logger

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/zlog"
)

// New initializes the shared wbf logger and returns it filtered to level.
// An empty level means info.
func New(level string) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if s := strings.TrimSpace(level); s != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(s))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("logger: %w", err)
		}
		lvl = parsed
	}

	zlog.Init()
	return zlog.Logger.Level(lvl), nil
}
