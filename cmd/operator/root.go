// Command operator is the Operator's process entrypoint: it wires the
// resolver, pod template generator, replicated KV store, sharding proxy,
// tracker fleet, observer facade, and submission engine packages into
// one running process.
//
// Configuration resolves from a persistent --config flag plus
// POTAMOI_-prefixed env vars, read once in PersistentPreRunE before any
// subcommand runs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Al-assad/potamoi-experiment/internal/config"
)

var (
	cfgFile string
	v       = viper.New()
	loaded  config.OperatorConf
)

var rootCmd = &cobra.Command{
	Use:   "operator",
	Short: "Deploys, tracks, and controls Apache Flink clusters on Kubernetes",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			v.SetConfigFile(cfgFile)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("read config %s: %w", cfgFile, err)
			}
		}
		loaded = config.Load(v)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); flags and POTAMOI_ env vars override it")
	config.BindFlags(v, rootCmd.PersistentFlags())
	rootCmd.AddCommand(serveCmd, versionCmd, clusterCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
