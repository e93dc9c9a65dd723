// Package config loads the settings that tell a hyper client where the API
// is and how to talk to it.
//
// Values are layered: a YAML settings file (env.yml, config.yml or
// <name>.yml), then a .env file, then HYPER_* environment variables with
// nested keys joined by underscores (HYPER_CACHE_ENABLED, HYPER_LOGGING_LEVEL).
//
//	var s config.Settings
//	if err := config.Load("hyperctl", &s); err != nil { ... }
//	if err := s.Validate(); err != nil { ... }
//	client, err := hyper.New(ctx, s.ClientConfig(log, nil))
package config
