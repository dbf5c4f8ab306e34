package main

import (
	"encoding/json"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tsawler/mysouku"
	"github.com/tsawler/mysouku/config"
	"github.com/tsawler/mysouku/logger"
	"github.com/tsawler/mysouku/mcpserver"
	"github.com/tsawler/mysouku/profile"
)

// app is the state shared by the subcommands once the configuration has
// been loaded.
type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "mysouku",
		Short:        "Replace the broker contact band of real-estate flyers",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the configuration")

	root.AddCommand(
		a.newConvertCmd(),
		a.newDetectCmd(),
		a.newExtractCmd(),
		a.newProfileCmd(),
		a.newMCPCmd(),
		a.newConfigCmd(),
	)
	return root
}

// setup loads the configuration and installs the logrus sink.
func (a *app) setup(stderr io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg

	l := logrus.New()
	l.SetOutput(stderr)
	l.SetLevel(logger.ParseLevel(cfg.Log.Level))
	if cfg.Log.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logger.SetLogger(logger.Logrus(l))
	return nil
}

func (a *app) converter() (*mysouku.Converter, error) {
	adv, err := a.cfg.NewAdvisor()
	if err != nil {
		return nil, err
	}
	return mysouku.NewConverter(a.cfg.ForConverter(adv))
}

func (a *app) readInput(path string) ([]byte, error) {
	return mysouku.ReadFile(path, a.cfg.Converter.MaxInputBytes)
}

func (a *app) profileStore() (profile.Store, func(), error) {
	s, err := a.cfg.OpenProfileStore()
	if err != nil {
		return nil, nil, err
	}
	closer := func() {}
	if c, ok := s.(io.Closer); ok {
		closer = func() {
			if err := c.Close(); err != nil {
				logger.Warn("closing profile store", "error", err)
			}
		}
	}
	return s, closer, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.Marshal(a.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func (a *app) newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve detect_footer, extract_listing, convert_flyer and get_profile over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conv, err := a.converter()
			if err != nil {
				return err
			}
			store, closeStore, err := a.profileStore()
			if err != nil {
				return err
			}
			defer closeStore()

			logger.Info("mcp server starting", "version", version, "profile_store", a.cfg.Profile.Store)
			return mcpserver.New(conv, store, a.cfg.Converter.MaxInputBytes).Run(cmd.Context(), version)
		},
	}
}
