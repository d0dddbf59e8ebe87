// Package cli is for command line interactions with cifasm.
package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/andrew-torda/cifasm/config"
	"github.com/andrew-torda/cifasm/pkg/common"
)

// flagKeys maps flag names to settings keys where they differ.
var flagKeys = map[string]string{
	"ident-max":      "ident.max",
	"ident-overflow": "ident.overflow",
}

// env is what a command needs once settings are read.
type env struct {
	cfg config.Config
	log *slog.Logger
	out io.Writer
}

// setup reads the settings, with this command's flags on top, and
// makes the logger.
func setup(cmd *cobra.Command) (*env, error) {
	v := viper.New()
	var err error
	bind := func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			key = f.Name
		}
		if e := v.BindPFlag(key, f); e != nil && err == nil {
			err = e
		}
	}
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name != "settings" && f.Name != "help" && f.Name != "version" {
			bind(f)
		}
	})
	if err != nil {
		return nil, err
	}
	settings, _ := cmd.Flags().GetString("settings")
	cfg, err := config.New(v, settings)
	if err != nil {
		return nil, err
	}
	lg, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: lg, out: cmd.OutOrStdout()}, nil
}

// NewRootCmd builds the command tree. Each call gives a fresh tree, so
// tests can run commands side by side.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cifasm",
		Short: "Read mmcif structures and build their biological assemblies",
		Long: `Read mmcif structures, optionally gzipped, and work out the models and
instances a viewer would draw, including assemblies built by applying
the operators of pdbx_struct_oper_list to chains.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := rootCmd.PersistentFlags()
	pf.String("settings", "", "settings file (yaml)")
	pf.String("log", "stderr", `where to log: "", stdout, stderr or a file`)
	pf.String("log-level", "warn", "debug, info, warn or error")
	pf.Int("ident-max", 0, "longest identifier kept (default from settings, 8)")
	pf.String("ident-overflow", "", "truncate or fail when an identifier is too long")

	rootCmd.AddCommand(newLoadCmd(), newFlatCmd(), newOperCmd(), newBatchCmd(), newAgentsCmd())
	return rootCmd
}

// Execute runs the command line and returns the exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		cmd.PrintErrln("Error:", err)
		return common.ExitFailure
	}
	return common.ExitSuccess
}
