package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/dynbike/dynbike/internal/contract"
	"github.com/dynbike/dynbike/internal/iocache"
	"github.com/dynbike/dynbike/internal/outwriter"
	"github.com/spf13/cobra"
)

// noInputSetupWrapper runs the shared setup for commands whose positional args are not inputs.
func noInputSetupWrapper(cmd *cobra.Command, _ []string) error {
	return sharedSetup(rootCtx, cmd, nil)
}

// sessionBackendSetup resolves the session backend without opening the store.
func sessionBackendSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := backendFromViper("session-backend", "session-db-connect")
	if err != nil {
		return err
	}
	cfg.SessionBackend = backend
	cfg.SessionDBConnect = connStr
	return nil
}

// sessionStoreSetup opens only the session store.
func sessionStoreSetup(cmd *cobra.Command, args []string) error {
	if err := sessionBackendSetup(cmd, args); err != nil {
		return err
	}
	if err := iocache.InitStores(cfg.SessionBackend, cfg.SessionDBConnect, "", ""); err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	storeManager = iocache.Manager
	return nil
}

// requireSessionStore returns the configured session store or exits.
func requireSessionStore() contract.SessionStore {
	if storeManager == nil || storeManager.GetSessionStore() == nil {
		contract.LogFatal("Session store unavailable", errors.New("no session store is configured"))
	}
	return storeManager.GetSessionStore()
}

// sqlitePath returns the SQLite file a backend resolves to.
func sqlitePath(connStr, fallback string) string {
	if connStr != "" {
		return connStr
	}
	return fallback
}

// sessionCmd focused on stored segmentation sessions.
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored segmentation sessions",
	Long: `Inspect and manage segmentation sessions persisted between operator responses.

Every segment step is checkpointed, so suspended or interrupted sessions can be listed,
inspected and resumed with 'dynbike segment --resume <id>'.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (no persistence)

Subcommands:
  list   - List stored sessions, most recently updated first
  show   - Show one session's history and result
  delete - Remove one stored session
  clear  - Remove all stored sessions
  status - Show store statistics and connection info`,
}

// sessionListCmd lists stored sessions.
var sessionListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List stored segmentation sessions",
	Args:    cobra.NoArgs,
	PreRunE: noInputSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		summaries, err := requireSessionStore().List()
		if err != nil {
			contract.LogFatal("Failed to list sessions", err)
		}
		if err := outwriter.PrintSessionList(summaries, cfg); err != nil {
			contract.LogFatal("Failed to print sessions", err)
		}
	},
}

// sessionShowCmd shows one stored session.
var sessionShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a stored session's decisions and result",
	Long: `Print one stored session in the configured output format.

Finished sessions print their final series or split parts; pending sessions print the
current series. --series-file writes the rows as well.

Examples:
  dynbike session show 0b8f2e9a-... --output json
  dynbike session show 0b8f2e9a-... --series-file parts.parquet`,
	Args:    cobra.ExactArgs(1),
	PreRunE: noInputSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		state, err := requireSessionStore().Get(args[0])
		if err != nil {
			contract.LogFatal("Failed to load session", err)
		}
		if err := outwriter.PrintSessionResult(state, cfg); err != nil {
			contract.LogFatal("Failed to print session", err)
		}
	},
}

// sessionDeleteCmd removes one stored session.
var sessionDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Short:   "Remove one stored session",
	Args:    cobra.ExactArgs(1),
	PreRunE: sessionStoreSetup,
	Run: func(_ *cobra.Command, args []string) {
		if err := requireSessionStore().Delete(args[0]); err != nil {
			contract.LogFatal("Failed to delete session", err)
		}
		fmt.Printf("Session %s deleted.\n", args[0])
	},
}

// sessionClearCmd clears all stored sessions.
var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored segmentation sessions",
	Long: `Delete every stored session from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the sessions table

WARNING: suspended sessions cannot be resumed afterwards.`,
	Args:    cobra.NoArgs,
	PreRunE: sessionBackendSetup,
	Run: func(_ *cobra.Command, _ []string) {
		path := sqlitePath(cfg.SessionDBConnect, contract.GetSessionDBFilePath())
		if err := iocache.ClearSessions(cfg.SessionBackend, path, cfg.SessionDBConnect); err != nil {
			contract.LogFatal("Failed to clear sessions", err)
		}
		fmt.Println("Sessions cleared successfully.")
	},
}

// sessionStatusCmd shows session store status.
var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display session store statistics and connection details",
	Long: `Show the session backend, its connection status, session counts per phase,
the newest and oldest timestamps and the table size.`,
	Args:    cobra.NoArgs,
	PreRunE: sessionStoreSetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := requireSessionStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get session status", err)
		}
		iocache.PrintSessionStoreStatus(os.Stdout, status)
	},
}
