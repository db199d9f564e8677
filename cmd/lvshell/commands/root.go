// Package commands implements lvshell's cobra command tree.
package commands

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/arterrin/lvrpc/client"
	lvconfig "github.com/arterrin/lvrpc/config"
	"github.com/arterrin/lvrpc/conn"
	"github.com/arterrin/lvrpc/internal/logger"
	"github.com/arterrin/lvrpc/internal/telemetry"
	"github.com/arterrin/lvrpc/rpcerr"
)

var telemetryShutdown func(context.Context) error

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Flags holds the global flag values every subcommand reads.
var Flags struct {
	Connect    string
	ReadOnly   bool
	ConfigPath string
	Output     string
}

var rootCmd = &cobra.Command{
	Use:   "lvshell",
	Short: "A libvirt RPC client shell",
	Long: `lvshell talks the libvirt RPC wire protocol directly to a libvirtd
instance (local or remote) without linking against libvirt's C library.

Use "lvshell [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := lvconfig.Load(Flags.ConfigPath)
		if err != nil {
			return err
		}
		if err := logger.Init(cfg.Logging); err != nil {
			return err
		}
		shutdown, err := telemetry.Init(cmd.Context(), cfg.Telemetry)
		if err != nil {
			return err
		}
		telemetryShutdown = shutdown
		if !cmd.Flags().Changed("connect") && cfg.Conn.DefaultURI != "" {
			Flags.Connect = cfg.Conn.DefaultURI
		}
		if !cmd.Flags().Changed("readonly") {
			Flags.ReadOnly = cfg.Conn.ReadOnly
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if telemetryShutdown == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return telemetryShutdown(ctx)
	},
}

// Execute adds all child commands and runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&Flags.Connect, "connect", "qemu+unix:///system", "libvirt connection URI")
	rootCmd.PersistentFlags().BoolVar(&Flags.ReadOnly, "readonly", false, "open the connection read-only")
	rootCmd.PersistentFlags().StringVar(&Flags.ConfigPath, "config", "", "path to an lvshell config file")
	rootCmd.PersistentFlags().StringVar(&Flags.Output, "output", "table", "output format: table or yaml")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(domainCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(volCmd)
	rootCmd.AddCommand(secretCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show lvshell's version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("lvshell %s (commit %s, built %s)\n", Version, Commit, Date)
	},
}

// open parses --connect and dials it, applying --readonly. Callers must
// close the returned connection.
func open(ctx context.Context) (*client.Connection, error) {
	uri, err := conn.ParseURI(Flags.Connect)
	if err != nil {
		return nil, err
	}
	uri.ReadOnly = uri.ReadOnly || Flags.ReadOnly

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return conn.Open(dialCtx, uri, conn.Options{DialTimeout: 10 * time.Second})
}

// fail prints err's message and exits with a code derived from its kind: 0
// is reserved for success, every taxonomy Kind maps to 1 plus its ordinal
// so scripts can distinguish a remote failure from a transport failure.
func fail(err error) {
	logger.Error("lvshell: command failed", "error", err)
	if rerr, ok := err.(*rpcerr.Error); ok {
		os.Stderr.WriteString(rerr.Error() + "\n")
		os.Exit(1 + int(rerr.Kind))
	}
	os.Stderr.WriteString(err.Error() + "\n")
	os.Exit(1)
}
