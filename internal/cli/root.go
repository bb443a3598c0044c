package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/appdir/internal/client"
	"github.com/MrSnakeDoc/appdir/internal/logger"
	"github.com/MrSnakeDoc/appdir/internal/store/sqlite"
	"github.com/MrSnakeDoc/appdir/internal/utils"
	"github.com/MrSnakeDoc/appdir/internal/version"
)

// session is what every subcommand works with once flags are parsed.
type session struct {
	cfg   *Config
	log   logger.Logger
	api   *client.API
	svc   *client.Service
	store *sqlite.Store
}

func (s *session) open(cfg *Config) error {
	s.cfg = cfg
	s.log = logger.With(logger.New("appdirctl", cfg.LogLevel, true), logger.String("server", cfg.Server))

	retry := client.DefaultRetry
	retry.Attempts = cfg.Retries
	api, err := client.NewAPI(cfg.Server,
		client.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		client.WithRetry(retry),
		client.WithAPILogger(s.log),
	)
	if err != nil {
		return err
	}

	store, err := sqlite.Open(cfg.Mirror)
	if err != nil {
		return fmt.Errorf("opening local mirror: %w", err)
	}

	s.api = api
	s.store = store
	s.svc = client.NewService(api, client.NewMirror(store, client.DefaultMirrorPrefix),
		client.WithCache(client.NewCache(cfg.CacheTTL, nil)),
		client.WithReprobe(cfg.Reprobe),
		client.WithServiceLogger(s.log),
	)
	return nil
}

func (s *session) close() {
	if s.store != nil {
		utils.MustClose(s.store, "mirror", s.log)
		s.store = nil
	}
}

func newRootCmd() (*cobra.Command, *session) {
	s := &session{log: logger.Nop()}
	var (
		flagConfig  string
		flagNoColor bool
	)

	root := &cobra.Command{
		Use:   "appdirctl",
		Short: "Browse and manage an appdir catalog of AI demo apps",
		Long: `appdirctl talks to an appdir server.

Reads are cached for a few minutes. When the server cannot be reached,
the last known catalog is served from a local mirror and changes are
queued; run 'appdirctl sync' once the server is back.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagNoColor {
				color.NoColor = true
			}
			cfg, err := loadConfig(cmd, flagConfig)
			if err != nil {
				return err
			}
			return s.open(cfg)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if s.svc == nil || !s.svc.Degraded() {
				return nil
			}
			st, err := s.svc.Status(cmd.Context())
			if err != nil {
				return err
			}
			warn(cmd.ErrOrStderr(), "server %s unreachable, working from the local mirror (%d change(s) pending)",
				s.cfg.Server, st.Pending)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default: "+DefaultConfigPath()+")")
	pf.BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	pf.String("server", "", "appdir server url (default http://localhost:8080)")
	pf.String("mirror", "", "Local mirror database file")

	root.AddCommand(
		newListCmd(s),
		newGetCmd(s),
		newAddCmd(s),
		newUpdateCmd(s),
		newDeleteCmd(s),
		newLikeCmd(s),
		newBatchCmd(s),
		newImportCmd(s),
		newExportCmd(s),
		newStatusCmd(s),
		newSyncCmd(s),
		newReindexCmd(s),
	)
	return root, s
}

// Execute is the entry point called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, s := newRootCmd()
	err := root.ExecuteContext(ctx)
	s.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

// ok prints a green success line.
func ok(w io.Writer, format string, a ...any) {
	fmt.Fprintln(w, color.GreenString("✓"), fmt.Sprintf(format, a...))
}

// warn prints a yellow warning line.
func warn(w io.Writer, format string, a ...any) {
	fmt.Fprintln(w, color.YellowString("!"), fmt.Sprintf(format, a...))
}

// header prints a cyan section heading.
func header(w io.Writer, format string, a ...any) {
	fmt.Fprintln(w, color.CyanString(fmt.Sprintf(format, a...)))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
