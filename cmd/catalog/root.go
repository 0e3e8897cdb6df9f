package catalog

import (
	"github.com/admariner/datafuse/cmd/util"
	"github.com/admariner/datafuse/lib/store"
	"github.com/spf13/cobra"
)

var (
	rpcStore store.IStore

	// CatalogCommands represents the database and table command group
	CatalogCommands = &cobra.Command{
		Use:               "catalog",
		Short:             "Manage databases and tables",
		PersistentPreRunE: setupClient,
	}

	// NodeCommands represents the node command group
	NodeCommands = &cobra.Command{
		Use:               "node",
		Short:             "Manage cluster nodes and inspect the state machine",
		PersistentPreRunE: setupClient,
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	util.SetupRPCClientFlags(CatalogCommands, 100)
	CatalogCommands.AddCommand(createDBCmd)
	CatalogCommands.AddCommand(dropDBCmd)
	CatalogCommands.AddCommand(getDBCmd)
	CatalogCommands.AddCommand(listDBCmd)
	CatalogCommands.AddCommand(createTableCmd)
	CatalogCommands.AddCommand(dropTableCmd)
	CatalogCommands.AddCommand(getTableCmd)
	CatalogCommands.AddCommand(versionCmd)

	createDBCmd.Flags().String("engine", "local", util.WrapString("Engine of the database"))
	createTableCmd.Flags().String("engine", "parquet", util.WrapString("Engine of the table"))
	createTableCmd.Flags().String("schema", "", util.WrapString("Serialized schema of the table"))
	createTableCmd.Flags().StringToString("option", nil, util.WrapString("Table options as key=value, may be repeated"))

	util.SetupRPCClientFlags(NodeCommands, 100)
	NodeCommands.AddCommand(addNodeCmd)
	NodeCommands.AddCommand(getNodeCmd)
	NodeCommands.AddCommand(statusCmd)
}

func setupClient(cmd *cobra.Command, _ []string) (err error) {
	rpcStore, err = util.NewStoreClient(cmd)
	return err
}
