package textredact

import (
	"errors"
	"fmt"
	"os"

	"github.com/redactyl/textredact/internal/config"
	"github.com/redactyl/textredact/internal/logging"
	"github.com/redactyl/textredact/pkg/redaction"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	cfgOutput string
	cfgForce  bool
)

func init() {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
		// config subcommands must work even when the current config is broken
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logging.Init("textredact", cmd.ErrOrStderr(), logging.Options{Level: flagLogLevel, Format: flagLogFormat})
			return nil
		},
	}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a .textredact.yml from the rule flags given on the command line",
		Args:  cobra.NoArgs,
		RunE:  runConfigInit,
		Example: `
textredact config init --pattern '1:password=(\S+)' --value hunter2 --key token --path 'auth.*'
`,
	}
	initCmd.Flags().StringVar(&cfgOutput, "output", ".textredact.yml", "output file path")
	initCmd.Flags().BoolVar(&cfgForce, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	validateCmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a config file against the schema and compile its rules",
		Args:  cobra.ExactArgs(1),
		RunE:  runConfigValidate,
	}
	cfgCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	if _, err := os.Stat(cfgOutput); err == nil && !cfgForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgOutput)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	fc := cliConfig()
	if fc.Placeholder == nil {
		fc.Placeholder = strPtr(config.FileConfig{}.GetPlaceholder())
	}
	opts, err := fc.Options()
	if err != nil {
		return err
	}
	if _, err := redaction.New(opts); err != nil {
		return err
	}

	b, err := yaml.Marshal(&fc)
	if err != nil {
		return err
	}
	if err := config.Validate(b); err != nil {
		return err
	}
	if err := os.WriteFile(cfgOutput, b, 0644); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Wrote", cfgOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	fc, err := config.LoadFile(args[0])
	if err != nil {
		return err
	}
	opts, err := fc.Options()
	if err != nil {
		return err
	}
	if _, err := redaction.New(opts); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d patterns, %d values, %d keys, %d paths)\n",
		args[0], len(opts.Rules), len(opts.Values), len(opts.Keys), len(opts.Paths))
	return nil
}
