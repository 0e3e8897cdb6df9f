package catalog

import (
	"fmt"

	"github.com/admariner/datafuse/cmd/util"
	"github.com/admariner/datafuse/lib/store"
	"github.com/admariner/datafuse/lib/types"
	"github.com/spf13/cobra"
)

// --------------------------------------------------------------------------
// Databases and Tables
// --------------------------------------------------------------------------

var (
	createDBCmd = &cobra.Command{
		Use:   "create-db [name]",
		Short: "Creates a database, an existing one is kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _ := cmd.Flags().GetString("engine")
			change, err := store.CreateDatabase(rpcStore, args[0], engine)
			if err != nil {
				return err
			}
			return util.PrintJSON(change)
		},
	}
	dropDBCmd = &cobra.Command{
		Use:   "drop-db [name]",
		Short: "Drops a database with all its tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			change, err := store.DropDatabase(rpcStore, args[0])
			if err != nil {
				return err
			}
			return util.PrintJSON(change)
		},
	}
	getDBCmd = &cobra.Command{
		Use:   "get-db [name]",
		Short: "Reads a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := rpcStore.GetDatabase(args[0])
			if err != nil {
				return err
			}
			return util.PrintJSON(database)
		},
	}
	listDBCmd = &cobra.Command{
		Use:   "list-db",
		Short: "Lists all databases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			databases, err := rpcStore.GetDatabases()
			if err != nil {
				return err
			}
			return util.PrintJSON(databases)
		},
	}
	createTableCmd = &cobra.Command{
		Use:   "create-table [db] [table]",
		Short: "Creates a table in an existing database",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _ := cmd.Flags().GetString("engine")
			schema, _ := cmd.Flags().GetString("schema")
			options, _ := cmd.Flags().GetStringToString("option")
			change, err := store.CreateTable(rpcStore, args[0], args[1], types.TableMeta{
				Schema:       []byte(schema),
				TableEngine:  engine,
				TableOptions: options,
			})
			if err != nil {
				return err
			}
			return util.PrintJSON(change)
		},
	}
	dropTableCmd = &cobra.Command{
		Use:   "drop-table [db] [table]",
		Short: "Drops a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			change, err := store.DropTable(rpcStore, args[0], args[1])
			if err != nil {
				return err
			}
			return util.PrintJSON(change)
		},
	}
	getTableCmd = &cobra.Command{
		Use:   "get-table [id]",
		Short: "Reads a table by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := util.ParseUint("id", args[0])
			if err != nil {
				return err
			}
			table, err := rpcStore.GetTable(id)
			if err != nil {
				return err
			}
			return util.PrintJSON(table)
		},
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Prints the catalog version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := rpcStore.GetDatabaseMetaVersion()
			if err != nil {
				return err
			}
			fmt.Printf("version=%d\n", version)
			return nil
		},
	}
)

// --------------------------------------------------------------------------
// Nodes and State
// --------------------------------------------------------------------------

var (
	addNodeCmd = &cobra.Command{
		Use:   "add [id] [name] [address]",
		Short: "Registers a node, an existing id is kept",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := util.ParseUint("id", args[0])
			if err != nil {
				return err
			}
			change, err := store.AddNode(rpcStore, types.NodeID(id), types.Node{Name: args[1], Address: args[2]})
			if err != nil {
				return err
			}
			return util.PrintJSON(change)
		},
	}
	getNodeCmd = &cobra.Command{
		Use:   "get [id]",
		Short: "Reads a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := util.ParseUint("id", args[0])
			if err != nil {
				return err
			}
			node, err := rpcStore.GetNode(types.NodeID(id))
			if err != nil {
				return err
			}
			return util.PrintJSON(node)
		},
	}
	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Prints the last applied log id, the membership and storage information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			last, err := rpcStore.GetLastApplied()
			if err != nil {
				return err
			}
			membership, err := rpcStore.GetMembership()
			if err != nil {
				return err
			}
			info, err := rpcStore.GetDBInfo()
			if err != nil {
				return err
			}
			return util.PrintJSON(map[string]any{
				"last_applied": last,
				"membership":   membership,
				"storage":      info,
			})
		},
	}
)
