package textredact

import (
	"fmt"
	"os"

	"github.com/redactyl/textredact/internal/config"
	"github.com/redactyl/textredact/internal/logging"
	"github.com/redactyl/textredact/pkg/redaction"
	"github.com/spf13/cobra"
)

var (
	flagConfig      string
	flagPlaceholder string
	flagPatterns    []string
	flagValues      []string
	flagKeys        []string
	flagPaths       []string
	flagWorkers     int
	flagNoColor     bool
	flagLogLevel    string
	flagLogFormat   string

	version = "0.1.0"
)

// state built once per invocation by setup
var (
	cfg      config.FileConfig
	redactor *redaction.Redactor
)

// rootCmd is the base Cobra command for the textredact CLI.
var rootCmd = &cobra.Command{
	Use:   "textredact",
	Short: "Mask secrets in text, JSON and YAML",
	Long: "textredact replaces regex matches, literal values and selected JSON/YAML keys with a placeholder.\n" +
		"Rules come from flags and from .textredact.yml files; flags win.",
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the textredact CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "config file (default: ./.textredact.yml layered over the global config)")
	pf.StringVar(&flagPlaceholder, "placeholder", "", "replacement text (default \""+redaction.DefaultPlaceholder+"\")")
	pf.StringArrayVar(&flagPatterns, "pattern", nil, "regex to redact; prefix N: to redact capture group N (repeatable)")
	pf.StringArrayVar(&flagValues, "value", nil, "literal value to redact (repeatable)")
	pf.StringArrayVar(&flagKeys, "key", nil, "JSON/YAML key whose value is redacted at any depth (repeatable)")
	pf.StringArrayVar(&flagPaths, "path", nil, "dotted JSON/YAML path to redact; a.* redacts the whole subtree (repeatable)")
	pf.IntVar(&flagWorkers, "workers", 0, "rule evaluation workers (0 = GOMAXPROCS)")
	pf.BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	pf.StringVar(&flagLogLevel, "log-level", "", "debug|info|warn|error (env TEXTREDACT_LOG_LEVEL)")
	pf.StringVar(&flagLogFormat, "log-format", "", "text|json (env TEXTREDACT_LOG_FORMAT)")
}

// setup loads configuration, builds the redactor and routes logging through
// it so configured secrets never reach stderr.
func setup(cmd *cobra.Command, _ []string) error {
	fc, err := loadConfig()
	if err != nil {
		return err
	}
	fc = config.Merge(fc, cliConfig())
	opts, err := fc.Options()
	if err != nil {
		return err
	}
	r, err := redaction.New(opts)
	if err != nil {
		return err
	}
	cfg, redactor = fc, r
	logging.Init("textredact", cmd.ErrOrStderr(), logging.Options{
		Level:    flagLogLevel,
		Format:   flagLogFormat,
		Redactor: r,
	})
	return nil
}
