package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bryansoph/taskflow/internal/account"
	"github.com/bryansoph/taskflow/internal/logger"
	"github.com/bryansoph/taskflow/internal/session"
	"github.com/bryansoph/taskflow/internal/task"
	"github.com/bryansoph/taskflow/models"
	"github.com/bryansoph/taskflow/store"
	"github.com/bryansoph/taskflow/types"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// verbose enables verbose output.
	verbose bool
	// version is the application version.
	version = "0.1.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "taskflow",
	Short: "taskflow is a shared work tracker for small teams.",
	Long: `taskflow is a shared work tracker: managers create and assign tasks,
staff report progress, and everyone sees a live dashboard and calendar of
what is due. All state lives in a synchronized document store, so several
clients working against the same data directory stay in step.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			_ = cmd.Help()
			os.Exit(0)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	logger.SetVersion(version)
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(InitConfig)
	rootCmd.Version = version

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.taskflow.yaml or ./.taskflow.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// GetStore initializes and returns the document store selected by the
// configuration.
func GetStore() (store.DocumentStore, error) {
	config := GetConfig()
	dataDir := filepath.Join(config.Project.RootDir, config.Project.DataDir)

	switch config.Data.Backend {
	case "sqlite":
		s := store.NewSQLiteDocumentStore()
		if err := s.Initialize(map[string]string{
			"dataFile": filepath.Join(dataDir, config.Data.File),
		}); err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite store in %s: %w", dataDir, err)
		}
		return s, nil
	default:
		s := store.NewFileDocumentStore()
		if err := s.Initialize(map[string]string{
			"dataDir":        dataDir,
			"dataFileFormat": config.Data.Format,
		}); err != nil {
			return nil, fmt.Errorf("failed to initialize file store in %s: %w", dataDir, err)
		}
		return s, nil
	}
}

// newAccountService wires an account service over the given store.
func newAccountService(docs store.DocumentStore) *account.Service {
	return account.NewService(docs, GetConfig().Auth.Domain)
}

// newTaskService wires a task service over the given store.
func newTaskService(docs store.DocumentStore) *task.Service {
	return task.NewService(docs)
}

// newGate wires the auth gate with an OS-filesystem session slot under the
// project root.
func newGate(docs store.DocumentStore) *session.Gate {
	config := GetConfig()
	path := filepath.Join(config.Project.RootDir, config.Auth.SessionFile)
	return session.NewGate(newAccountService(docs), afero.NewOsFs(), path)
}

// currentAccount returns the restored session account, or an error telling
// the user to log in.
func currentAccount(docs store.DocumentStore) (models.Account, error) {
	acc, ok, err := newGate(docs).Current()
	if err != nil {
		return models.Account{}, err
	}
	if !ok {
		return models.Account{}, fmt.Errorf("not logged in. Run 'taskflow login <handle>' first")
	}
	return acc, nil
}

// requireManager returns the session account, failing when it does not
// hold the manager role.
func requireManager(docs store.DocumentStore) (models.Account, error) {
	acc, err := currentAccount(docs)
	if err != nil {
		return models.Account{}, err
	}
	if !acc.IsManager() {
		return models.Account{}, types.NewUnauthorized("this operation requires the manager role", nil)
	}
	return acc, nil
}
