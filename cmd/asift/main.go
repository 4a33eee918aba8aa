// Command asift detects affine-invariant keypoints in images.
package main

import (
	"fmt"
	"os"

	"asift/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:           "asift",
		Short:         "Affine-invariant SIFT keypoint detection",
		Long:          `Runs SIFT over a sweep of simulated camera tilts and rotations and maps every keypoint back to the input image.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	configPath string
	flags      config.Flags
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "JSON config file")
	pf.StringVar(&flags.LogLevel, "log-level", "", "log level: debug, info, warn, error (default info)")
	pf.Bool("log-json", false, "log as JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("asift failed")
		os.Exit(1)
	}
}

// resolveConfig loads the config file, applies the command's flags and sets
// up logging.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return config.Config{}, err
		}
	}

	f := flags
	f.HighResolution = changedBool(cmd, "high-resolution")
	f.Colour = changedBool(cmd, "colour")
	f.LogJSON = changedBool(cmd, "log-json")
	cfg.Resolve(f)

	if err := setupLogging(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, cfg.Validate()
}

func setupLogging(cfg config.Config) error {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logrus.SetLevel(level)
	if cfg.LogJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// changedBool returns the value of a bool flag the user set explicitly, or nil.
func changedBool(cmd *cobra.Command, name string) *bool {
	fl := cmd.Flags().Lookup(name)
	if fl == nil || !fl.Changed {
		return nil
	}
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return nil
	}
	return &v
}
