package app

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/autopeer-io/garage/pkg/log"
)

const configFlagName = "config"

var cfgFile string

// AddConfigFlag registers --config and sets up viper so that values come from
// flags, then GARAGE_* environment variables, then the config file.
func AddConfigFlag(fs *pflag.FlagSet, name string, watch bool) {
	fs.StringVarP(&cfgFile, configFlagName, "c", cfgFile, "Read configuration from the specified `FILE`, "+
		"support JSON, TOML, YAML, HCL, or Java properties formats.")

	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix(name))
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	cobra.OnInitialize(func() {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.AddConfigPath(".")
			if home, err := os.UserHomeDir(); err == nil {
				viper.AddConfigPath(filepath.Join(home, "."+name))
			}
			viper.AddConfigPath(filepath.Join("/etc", name))
			viper.SetConfigName(name)
			viper.SetConfigType("yaml")
		}

		if err := viper.ReadInConfig(); err != nil {
			if cfgFile != "" {
				log.Error(err, "Failed to read configuration file", "file", cfgFile)
				os.Exit(1)
			}
			return
		}
		log.Debug("Using config file", "file", viper.ConfigFileUsed())

		if watch {
			viper.WatchConfig()
			viper.OnConfigChange(func(e fsnotify.Event) {
				log.Info("Config file changed, restart to apply", "name", e.Name, "op", e.Op.String())
			})
		}
	})
}

// envPrefix is GARAGE for every garage binary.
func envPrefix(name string) string {
	prefix, _, _ := strings.Cut(name, "-")
	prefix = strings.TrimSuffix(prefix, "d")
	prefix = strings.TrimSuffix(prefix, "ctl")
	return strings.ToUpper(prefix)
}
