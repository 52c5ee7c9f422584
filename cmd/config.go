package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bryansoph/taskflow/types"
)

const (
	configName = ".taskflow"
	envPrefix  = "TASKFLOW"
)

// GlobalAppConfig holds the global application configuration instance.
var GlobalAppConfig types.AppConfig

// validate is a single validator instance; it caches struct info.
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// validateAppConfig performs validation on the AppConfig struct.
func validateAppConfig(config *types.AppConfig) error {
	if errs := validate.Struct(config); errs != nil {
		return errs
	}
	return nil
}

// InitConfig reads in config file and ENV variables if set.
func InitConfig() {
	// Load .env file first if present; it's okay if it doesn't exist.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix) // e.g., TASKFLOW_VERBOSE
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfgFileFlag := viper.GetString("config") // Value from --config flag

	if cfgFileFlag != "" {
		viper.SetConfigFile(cfgFileFlag)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(".")        // ./.taskflow.yaml
		viper.AddConfigPath(home)       // $HOME/.taskflow.yaml
		viper.SetConfigName(configName)
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if cfgFileFlag != "" {
				fmt.Fprintln(os.Stderr, "Error: Specified config file not found:", cfgFileFlag)
			} else if viper.GetBool("verbose") {
				fmt.Fprintln(os.Stderr, "No config file found. Using defaults and environment variables.")
			}
		} else {
			fmt.Fprintln(os.Stderr, "Error reading config file:", viper.ConfigFileUsed(), "-", err)
		}
	}

	// Set default values
	viper.SetDefault("project.rootDir", ".taskflow")
	viper.SetDefault("project.dataDir", "data")

	viper.SetDefault("data.backend", "file")
	viper.SetDefault("data.format", "json")
	viper.SetDefault("data.file", "taskflow.db")

	viper.SetDefault("auth.domain", "taskflow.com")
	viper.SetDefault("auth.sessionFile", "session.json")

	// Seed identities ship as defaults; their secrets do not. A seed entry
	// with no secret is skipped by first-run seeding, so credentials must
	// come from a config file or the environment.
	viper.SetDefault("seed", []map[string]any{
		{"name": "Bryan Soph", "handle": "bryansoph", "role": "manager"},
		{"name": "ABC Staff", "handle": "abctry", "role": "employee"},
	})

	if err := viper.Unmarshal(&GlobalAppConfig); err != nil {
		fmt.Fprintln(os.Stderr, "Error: unable to decode configuration:", err)
		os.Exit(1)
	}

	if err := validateAppConfig(&GlobalAppConfig); err != nil {
		fmt.Fprintln(os.Stderr, "Error: invalid configuration:", err)
		os.Exit(1)
	}
}

// GetConfig returns the loaded application configuration.
func GetConfig() *types.AppConfig {
	return &GlobalAppConfig
}
