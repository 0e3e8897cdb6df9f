package file

import (
	"fmt"

	"github.com/admariner/datafuse/cmd/util"
	"github.com/admariner/datafuse/lib/store"
	"github.com/admariner/datafuse/lib/types"
	"github.com/spf13/cobra"
)

var (
	rpcStore store.IStore

	// FileCommands represents the file entry command group
	FileCommands = &cobra.Command{
		Use:   "file",
		Short: "Manage file entries",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) (err error) {
			rpcStore, err = util.NewStoreClient(cmd)
			return err
		},
	}

	addCmd = &cobra.Command{
		Use:   "add [key] [value]",
		Short: "Adds a file entry, an existing entry is kept",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			change, err := store.AddFile(rpcStore, args[0], args[1])
			if err != nil {
				return err
			}
			printChange(args[0], change)
			return nil
		},
	}
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets a file entry, an existing entry is replaced",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			change, err := store.SetFile(rpcStore, args[0], args[1])
			if err != nil {
				return err
			}
			printChange(args[0], change)
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads a file entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := rpcStore.GetFile(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, %s\n", args[0], formatValue(value))
			return nil
		},
	}
	listCmd = &cobra.Command{
		Use:   "list [prefix]",
		Short: "Lists the keys of all file entries starting with prefix",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			keys, err := rpcStore.ListFiles(prefix)
			if err != nil {
				return err
			}
			for _, key := range keys {
				fmt.Println(key)
			}
			return nil
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)
	util.SetupRPCClientFlags(FileCommands, 100)

	FileCommands.AddCommand(addCmd)
	FileCommands.AddCommand(setCmd)
	FileCommands.AddCommand(getCmd)
	FileCommands.AddCommand(listCmd)
}

func formatValue(v *string) string {
	if v == nil {
		return "found=false"
	}
	return fmt.Sprintf("found=true, value=%s", *v)
}

func printChange(key string, change *types.Change[string]) {
	fmt.Printf("key=%s, changed=%t\n  prev:   %s\n  result: %s\n", key, change.Changed(), formatValue(change.Prev), formatValue(change.Result))
}
