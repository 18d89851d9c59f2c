// Command settings prints the effective configuration as JSON.
// Credentials are never printed.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"vector-rag/internal/config"
)

func main() {
	if err := run(os.Stdout, config.Get); err != nil {
		slog.Default().Error("failed to load settings", "err", err)
		os.Exit(1)
	}
}

func run(w io.Writer, get func() (*config.Settings, error)) error {
	s, err := get()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return nil
}
