package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/kbukum/hyperkit/config"
	"github.com/kbukum/hyperkit/errors"
	"github.com/kbukum/hyperkit/hyper"
	"github.com/kbukum/hyperkit/logger"
	"github.com/kbukum/hyperkit/observability"
	"github.com/kbukum/hyperkit/version"
)

const serviceName = "hyperctl"

// app carries the state shared by every subcommand of one invocation.
type app struct {
	configFile string
	envFile    string
	output     string
	logLevel   string

	settings config.Settings
	log      *logger.Logger
	metrics  *observability.Metrics
	shutdown []func(context.Context) error

	client *hyper.Client
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   serviceName,
		Short: "Browse and change resources of a schema-driven REST API",
		Long: `hyperctl loads the API schema from the server and drives its
collections, resources, links and actions. Settings come from a
settings file, .env and HYPER_* variables; flags win over all three.`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close(cmd.Context())
		},
	}
	root.SetVersionTemplate(`{{printf "hyperctl version %s\n" .Version}}`)

	f := root.PersistentFlags()
	f.StringVar(&a.configFile, "config", "", "settings file (default: env.yml or config.yml in the working directory)")
	f.StringVar(&a.envFile, "env-file", "", ".env file to load")
	f.StringVarP(&a.output, "output", "o", formatTable, "output format: table, json or yaml")
	f.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	f.StringVar(&a.settings.URL, "url", "", "API base URL, e.g. https://rancher.local/v3")
	f.StringVar(&a.settings.Token, "token", "", "bearer token")
	f.StringVar(&a.settings.AccessKey, "access-key", "", "API access key")
	f.StringVar(&a.settings.SecretKey, "secret-key", "", "API secret key")
	f.StringVar(&a.settings.Username, "username", "", "login user when no key or token is set")
	f.StringVar(&a.settings.Password, "password", "", "login password")
	f.BoolVar(&a.settings.Insecure, "insecure", false, "skip TLS certificate verification")
	f.BoolVar(&a.settings.Cache.Enabled, "cache", false, "cache the schema on disk")
	f.BoolVar(&a.settings.Strict, "strict", false, "reject list filters the schema does not declare")
	f.StringVar(&a.settings.Telemetry.Endpoint, "otlp-endpoint", "", "export traces and metrics to this OTLP/HTTP endpoint")

	root.AddCommand(
		newLoginCmd(a),
		newSchemaCmd(a),
		newListCmd(a),
		newGetCmd(a),
		newCreateCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newActionCmd(a),
		newWaitCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup layers loaded settings under the flag values and builds the
// logger and telemetry.
func (a *app) setup(cmd *cobra.Command) error {
	if err := a.validateOutput(); err != nil {
		return err
	}

	// Flags are bound to a.settings; only the ones set explicitly win.
	var loaded config.Settings
	var opts []config.LoaderOption
	if a.configFile != "" {
		opts = append(opts, config.WithConfigFile(a.configFile))
	}
	if a.envFile != "" {
		opts = append(opts, config.WithEnvFile(a.envFile))
	}
	if err := config.Load(serviceName, &loaded, opts...); err != nil {
		return err
	}
	a.settings = mergeFlags(cmd, loaded, a.settings)
	if a.logLevel != "" {
		a.settings.Logging.Level = a.logLevel
	}

	a.log = logger.NewWithWriter(&a.settings.Logging, serviceName, cmd.ErrOrStderr())
	logger.SetGlobalLogger(a.log)

	if a.settings.Telemetry.Endpoint != "" {
		if err := a.initTelemetry(cmd.Context()); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) initTelemetry(ctx context.Context) error {
	tracerCfg := a.settings.TracerConfig(serviceName)
	tracerCfg.ServiceVersion = version.Version
	tp, err := observability.InitTracer(ctx, tracerCfg)
	if err != nil {
		return errors.Configuration("init tracer", err)
	}
	a.shutdown = append(a.shutdown, tp.Shutdown)

	meterCfg := a.settings.MeterConfig(serviceName)
	meterCfg.ServiceVersion = version.Version
	mp, err := observability.InitMeter(ctx, meterCfg)
	if err != nil {
		return errors.Configuration("init meter", err)
	}
	a.shutdown = append(a.shutdown, mp.Shutdown)

	a.metrics, err = observability.NewMetrics(observability.Meter(serviceName))
	if err != nil {
		return errors.Configuration("init metrics", err)
	}
	return nil
}

func (a *app) close(ctx context.Context) error {
	if a.client != nil {
		a.client.Close()
		a.client = nil
	}
	var first error
	for _, fn := range a.shutdown {
		if err := fn(ctx); err != nil && first == nil {
			first = err
		}
	}
	a.shutdown = nil
	return first
}

// connect returns the client, logging in with username and password first
// when neither a key nor a token is configured.
func (a *app) connect(ctx context.Context) (*hyper.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	if err := a.settings.Validate(); err != nil {
		return nil, err
	}
	if a.settings.AccessKey == "" && a.settings.Token == "" && a.settings.Password != "" {
		token, err := hyper.Login(ctx, a.settings.TransportConfig(a.log), "", a.settings.Username, a.settings.Password)
		if err != nil {
			return nil, err
		}
		a.settings.Token = token
	}
	c, err := hyper.New(ctx, a.settings.ClientConfig(a.log, a.metrics))
	if err != nil {
		return nil, err
	}
	a.client = c
	return c, nil
}

func (a *app) printer(w io.Writer) *printer {
	return &printer{format: a.output, w: w}
}

func (a *app) validateOutput() error {
	switch a.output {
	case formatTable, formatJSON, formatYAML:
		return nil
	}
	return errors.InvalidInput("output", "must be one of table, json, yaml")
}

// mergeFlags overlays every flag the user set on loaded.
func mergeFlags(cmd *cobra.Command, loaded, flags config.Settings) config.Settings {
	changed := func(name string) bool { return cmd.Flags().Changed(name) }
	if changed("url") {
		loaded.URL = flags.URL
	}
	if changed("token") {
		loaded.Token = flags.Token
	}
	if changed("access-key") {
		loaded.AccessKey = flags.AccessKey
	}
	if changed("secret-key") {
		loaded.SecretKey = flags.SecretKey
	}
	if changed("username") {
		loaded.Username = flags.Username
	}
	if changed("password") {
		loaded.Password = flags.Password
	}
	if changed("insecure") {
		loaded.Insecure = flags.Insecure
	}
	if changed("cache") {
		loaded.Cache.Enabled = flags.Cache.Enabled
	}
	if changed("strict") {
		loaded.Strict = flags.Strict
	}
	if changed("otlp-endpoint") {
		loaded.Telemetry.Endpoint = flags.Telemetry.Endpoint
	}
	loaded.ApplyDefaults()
	return loaded
}
