/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/harjot20022001/bug-tracker/config"
	"github.com/harjot20022001/bug-tracker/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var configFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bugtracker",
	Short: "Bug tracker backend",
	Long: `Bug tracker backend: a JSON API for projects and tickets with
email notifications on assignment and update.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().AddFlagSet(globalFlags())
}

func globalFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("global", pflag.ExitOnError)
	fs.StringVarP(&configFile, "config", "c", "", "path to a YAML config file (defaults to $"+config.ConfigFileEnv+")")
	return fs
}

func loadRuntime() (config.Config, *logging.SlogLogger, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format), nil
}
