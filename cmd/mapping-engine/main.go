// Command mapping-engine runs the reactive configuration-mapping engine:
// an Abstract Config Store, a Provider Registry, a Mapping Service that
// resolves and caches per-Id property dictionaries, and a read-only admin
// surface for operational visibility.
package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/fang/v2"
	"github.com/spf13/cobra"
)

const defaultConfigFile = "mapping-engine.yaml"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "mapping-engine",
	Short: "Reactive configuration-mapping engine",
	Long: `mapping-engine resolves configuration entities published to an Abstract
Config Store into Mapping values, dispatching change events to subscribers
and exposing a read-only admin surface for introspection.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to the engine config file")
}

func main() {
	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}

// findConfigFile searches for the engine config in default locations when
// --config was not given.
func findConfigFile() string {
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		p := filepath.Join(home, ".config", "mapping-engine", defaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return defaultConfigFile
}

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return findConfigFile()
}
