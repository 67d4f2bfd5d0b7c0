package commands

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ankit-chaubey/layer/internal/dcpool"
)

// errSessionBackendNotFile is returned when session commands are run
// against a non-file session backend; there is nothing on disk to show
// or clear for an in-memory backend.
var errSessionBackendNotFile = errors.New("session commands require session.backend: file")

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or clear the on-disk session",
	}

	cmd.AddCommand(sessionShowCmd())
	cmd.AddCommand(sessionClearCmd())

	return cmd
}

func openFileBackend() (*dcpool.FileBackend, error) {
	if cfg.Session.Backend != "file" {
		return nil, fmt.Errorf("%w (got %q)", errSessionBackendNotFile, cfg.Session.Backend)
	}
	return dcpool.NewFileBackend(cfg.Session.Path), nil
}

// --- session show ---

func sessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the home DC and known DC records from the session file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			backend, err := openFileBackend()
			if err != nil {
				return err
			}

			homeDC, records, err := backend.Load()
			if err != nil {
				return fmt.Errorf("load session: %w", err)
			}

			out, err := formatSession(homeDC, records, outputFormat)
			if err != nil {
				return fmt.Errorf("format session: %w", err)
			}

			fmt.Print(out)

			return nil
		},
	}
}

// --- session clear ---

func sessionClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the session file, forcing re-authorization on next run",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			backend, err := openFileBackend()
			if err != nil {
				return err
			}

			if err := backend.Delete(); err != nil {
				return fmt.Errorf("clear session: %w", err)
			}

			fmt.Println("Session cleared.")

			return nil
		},
	}
}

// fingerprintOf returns a short hex fingerprint for a record's auth key,
// or "none" if the record has not been authorized yet.
func fingerprintOf(rec dcpool.Record) string {
	if rec.AuthKey == nil {
		return "none"
	}
	id := rec.AuthKey.KeyID()
	return hex.EncodeToString(id[:])
}
