package cmd

import (
	"fmt"
	"os"

	"github.com/admariner/datafuse/cmd/catalog"
	"github.com/admariner/datafuse/cmd/file"
	"github.com/admariner/datafuse/cmd/kv"
	"github.com/admariner/datafuse/cmd/lock"
	"github.com/admariner/datafuse/cmd/serve"
	"github.com/admariner/datafuse/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dmeta",
		Short: "replicated metadata service",
		Long: fmt.Sprintf(`dmeta (v%s)

A replicated metadata service written in Go. It keeps cluster nodes,
databases, tables, file entries and a generic versioned key-value space
in a RAFT replicated state machine.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dmeta",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dmeta v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(file.FileCommands)
	RootCmd.AddCommand(catalog.CatalogCommands)
	RootCmd.AddCommand(catalog.NodeCommands)
	RootCmd.AddCommand(lock.LockCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, gob)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "http", util.WrapString("transport to use (http, grpc)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
