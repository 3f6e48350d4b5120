// Package cmd provides the command-line interface for coursegrid with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --port, etc.) - highest priority
//	2. COURSEGRID_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (COURSEGRID_SERVER_PORT, etc.)
//	4. Configuration files (.coursegrid.yml) - lowest priority
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "coursegrid",
	Short: "A courseware preview server for XML course trees",
	Long: `Coursegrid imports an XML course tree, resolves each content node
through a plugin registry of content types, and serves the rendered
course to browsers with per-student state and live reload.

Key Features:
  • Pluggable content types (chapter, sequential, vertical, html, video, problem)
  • Metadata inheritance from course policy down the content tree
  • Per-student module state persisted in SQLite
  • Hot reload when course files change on disk

Quick Start:
  coursegrid validate ./course    Check a course imports cleanly
  coursegrid serve ./course       Serve the course with live reload
  coursegrid list categories      List registered content types
  coursegrid export ./course      Re-export the imported course as XML`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .coursegrid.yml, can also use COURSEGRID_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig initializes the configuration system.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. COURSEGRID_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .coursegrid.yml in current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("COURSEGRID_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".coursegrid")
	}

	// Examples: COURSEGRID_SERVER_PORT, COURSEGRID_COURSE_DIR
	viper.SetEnvPrefix("COURSEGRID")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing config file is fine; defaults and env vars still apply.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
