package types

// AppConfig represents the complete application configuration.
// It is populated by viper (config file, environment, flags) and validated
// once at startup.
type AppConfig struct {
	// Verbose enables verbose output.
	Verbose bool `mapstructure:"verbose"`

	// Project holds project-level paths.
	Project ProjectConfig `mapstructure:"project" validate:"required"`

	// Data configures the document store backend.
	Data DataConfig `mapstructure:"data" validate:"required"`

	// Auth configures handle normalization and the session slot.
	Auth AuthConfig `mapstructure:"auth" validate:"required"`

	// Seed lists the accounts written on first run when the roster is empty.
	// Entries with an empty secret are skipped, so no credential has to live
	// in a committed config file.
	Seed []SeedAccount `mapstructure:"seed" validate:"dive"`
}

// ProjectConfig holds project-level path settings.
type ProjectConfig struct {
	// RootDir is the directory holding all taskflow state (default ".taskflow").
	RootDir string `mapstructure:"rootDir" validate:"required"`
	// DataDir is the directory for collection data, relative to RootDir.
	DataDir string `mapstructure:"dataDir" validate:"required"`
}

// DataConfig configures the document store backend.
type DataConfig struct {
	// Backend selects the store implementation: "file" or "sqlite".
	Backend string `mapstructure:"backend" validate:"required,oneof=file sqlite"`
	// Format is the file backend serialization format: json, yaml or toml.
	Format string `mapstructure:"format" validate:"required,oneof=json yaml toml"`
	// File is the sqlite database filename, relative to the data dir.
	File string `mapstructure:"file" validate:"required"`
}

// AuthConfig configures login handle normalization and session persistence.
type AuthConfig struct {
	// Domain is appended to bare login handles ("bryan" -> "bryan@<domain>").
	Domain string `mapstructure:"domain" validate:"required,fqdn"`
	// SessionFile is the serialized-session filename, relative to RootDir.
	SessionFile string `mapstructure:"sessionFile" validate:"required"`
}

// SeedAccount describes one account written by first-run seeding.
type SeedAccount struct {
	Name   string `mapstructure:"name" validate:"required"`
	Handle string `mapstructure:"handle" validate:"required"`
	Secret string `mapstructure:"secret"`
	Role   string `mapstructure:"role" validate:"required,oneof=manager employee"`
}
