package cli

import (
	"log/slog"

	"github.com/aretw0/spellout/internal/logging"
)

func nopLogger() *slog.Logger {
	return logging.NewNop()
}
