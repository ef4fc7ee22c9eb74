package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/xoverview/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and manage the configuration",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := loadConfig()
		if err != nil {
			return err
		}
		return writeYAML(cmd.OutOrStdout(), res.Config)
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for errors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := loadConfig()
		if err != nil {
			return err
		}
		printValidation(cmd.OutOrStdout(), res)
		return nil
	},
}

var configExplainCmd = &cobra.Command{
	Use:   "explain KEY",
	Short: "Show a configuration value and where it was set",
	Example: `  xoverview config explain layout.margin
  xoverview config explain commands.move_to_desktop`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := loadConfig()
		if err != nil {
			return err
		}
		value, src, err := config.Explain(res, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", args[0], value)
		fmt.Fprintf(cmd.OutOrStdout(), "source: %s\n", describeSource(src))
		return nil
	},
}

var initForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write the default configuration to the config path. Desktop commands
are filled in from the first desktop tool found on PATH (wmctrl, xdotool).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		return initConfig(cmd.OutOrStdout(), path, initForce, config.DetectDesktopTools())
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPathCmd, configShowCmd, configValidateCmd, configExplainCmd, configInitCmd)
	configInitCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing file")
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

func printValidation(w io.Writer, res *config.LoadResult) {
	if len(res.Files) == 0 {
		fmt.Fprintln(w, "no config file found; defaults are valid")
		return
	}
	fmt.Fprintln(w, "configuration is valid")
	for _, f := range res.Files {
		fmt.Fprintf(w, "  %s\n", f)
	}
}

func describeSource(src config.Source) string {
	if src.Kind == config.SourceFile {
		return fmt.Sprintf("%s:%d:%d", src.File, src.Line, src.Column)
	}
	if src.Name != "" {
		return src.Name
	}
	return string(src.Kind)
}

// initConfig writes defaults to path, using the first detected desktop tool
// for the desktop commands.
func initConfig(w io.Writer, path string, force bool, tools []config.DetectedTool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	cfg := config.DefaultConfig()
	if len(tools) > 0 {
		cfg.Commands = tools[0].Proposed
		fmt.Fprintf(w, "using %s (%s) for desktop commands\n", tools[0].Name, tools[0].Path)
	} else {
		fmt.Fprintln(w, "no desktop tool found; desktop commands left empty")
	}
	if err := cfg.SaveTo(path); err != nil {
		return err
	}
	fmt.Fprintf(w, "wrote %s\n", path)
	return nil
}
