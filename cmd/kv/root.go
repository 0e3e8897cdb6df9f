package kv

import (
	"github.com/admariner/datafuse/cmd/util"
	"github.com/admariner/datafuse/lib/store"
	"github.com/spf13/cobra"
)

var (
	rpcStore store.IStore

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:               "kv",
		Short:             "Perform generic key-value operations",
		PersistentPreRunE: setupKVClient,
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	util.SetupRPCClientFlags(KeyValueCommands, 100)

	KeyValueCommands.AddCommand(upsertCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(mgetCmd)
	KeyValueCommands.AddCommand(listCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(touchCmd)
	KeyValueCommands.AddCommand(incrCmd)
	KeyValueCommands.AddCommand(sweepCmd)

	for _, c := range []*cobra.Command{upsertCmd, delCmd, touchCmd} {
		c.Flags().String("seq", "any", util.WrapString("Condition on the current seq: any, N (exactly N, 0 = key must not exist) or >=N"))
	}
	for _, c := range []*cobra.Command{upsertCmd, touchCmd} {
		c.Flags().Uint64("ttl", 0, util.WrapString("Seconds until the value expires (0 = never)"))
	}
}

// setupKVClient initializes the RPC store client
func setupKVClient(cmd *cobra.Command, _ []string) (err error) {
	rpcStore, err = util.NewStoreClient(cmd)
	return err
}
