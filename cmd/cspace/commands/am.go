package commands

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/cspace/am"
	"github.com/teranos/cspace/display"
	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/sym"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: sym.AM + " Show and validate configuration",
	Long: sym.AM + ` am — Show and validate cspace configuration

Configuration sources (later overrides earlier):
1. Built-in defaults
2. System config (/etc/cspace/am.toml)
3. User config (~/.cspace/am.toml)
4. Project config (nearest am.toml walking up from the working directory)
5. --config file
6. Environment variables (CSPACE_* prefix, dots become underscores)

Examples:
  cspace am show                          # Show current configuration
  cspace am show --format json            # Show configuration in JSON format
  cspace am get metric.minkowski_p        # Get specific config value
  cspace am set categories.max_radius 1.5 # Persist a value to the user config
  cspace am where                         # Show which source set each value
  cspace am validate                      # Validate current configuration`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., metric.minkowski_p, path.beam_width)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist a configuration value",
	Long:  "Write a value into a TOML config file (the user config unless --file is given). The result must validate.",
	Args:  cobra.ExactArgs(2),
	RunE:  runAmSet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where each configuration value comes from",
	RunE:  runAmWhere,
}

var (
	configFormat string
	amSetFile    string
)

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	amSetCmd.Flags().StringVar(&amSetFile, "file", "", "Config file to write (default: user config)")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amSetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	format := configFormat
	if display.ShouldOutputJSON(cmd) {
		format = "json"
	}
	switch format {
	case "json":
		return display.OutputJSON(cfg)
	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Printf("# cspace configuration\n%s", string(data))
	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to TOML")
		}
		fmt.Printf("# cspace configuration\n%s", string(data))
	default:
		return errors.Newf("unsupported format: %s (supported: toml, json, yaml)", format)
	}
	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if !am.GetViper().IsSet(key) {
		return errors.NotFoundf("configuration key %q", key)
	}
	value := am.Get(key)
	return display.Render(cmd, map[string]interface{}{"key": key, "value": value}, func() error {
		fmt.Println(value)
		return nil
	})
}

func runAmSet(cmd *cobra.Command, args []string) error {
	path := amSetFile
	if path == "" {
		path = am.UserConfigPath()
	}
	if err := am.SetValue(path, args[0], args[1]); err != nil {
		return err
	}
	am.Reset()
	pterm.Success.Printf("%s = %s written to %s\n", args[0], args[1], path)
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	pterm.Success.Println("Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	settings := am.Introspect()
	return display.Render(cmd, settings, func() error {
		rows := make([][]string, 0, len(settings))
		for _, s := range settings {
			rows = append(rows, []string{s.Key, fmt.Sprint(s.Value), string(s.Source), s.SourcePath})
		}
		return display.Table([]string{"Key", "Value", "Source", "Path"}, rows)
	})
}
