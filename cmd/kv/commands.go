package kv

import (
	"fmt"
	"time"

	"github.com/admariner/datafuse/cmd/util"
	"github.com/admariner/datafuse/lib/store"
	"github.com/admariner/datafuse/lib/types"
	"github.com/spf13/cobra"
)

var (
	upsertCmd = &cobra.Command{
		Use:   "upsert [key] [value]",
		Short: "Sets the value for a key if the seq condition holds",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, meta, err := conditionFlags(cmd)
			if err != nil {
				return err
			}
			change, err := store.UpsertKV(rpcStore, args[0], seq, types.OpUpdate([]byte(args[1])), meta)
			if err != nil {
				return err
			}
			printChange(args[0], change)
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := rpcStore.GetKV(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, %s\n", args[0], formatValue(value))
			return nil
		},
	}
	mgetCmd = &cobra.Command{
		Use:   "mget [key...]",
		Short: "Reads the values for several keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := rpcStore.MGetKV(args)
			if err != nil {
				return err
			}
			for i, value := range values {
				fmt.Printf("key=%s, %s\n", args[i], formatValue(value))
			}
			return nil
		},
	}
	listCmd = &cobra.Command{
		Use:   "list [prefix]",
		Short: "Lists all values whose key starts with prefix",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			pairs, err := rpcStore.PrefixListKV(prefix)
			if err != nil {
				return err
			}
			for _, pair := range pairs {
				fmt.Printf("key=%s, %s\n", pair.Key, formatValue(&pair.Value))
			}
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key if the seq condition holds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, _, err := conditionFlags(cmd)
			if err != nil {
				return err
			}
			change, err := store.UpsertKV(rpcStore, args[0], seq, types.OpDelete(), nil)
			if err != nil {
				return err
			}
			printChange(args[0], change)
			return nil
		},
	}
	touchCmd = &cobra.Command{
		Use:   "touch [key]",
		Short: "Replaces the expiry of a key, keeping its value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, meta, err := conditionFlags(cmd)
			if err != nil {
				return err
			}
			change, err := store.UpdateKVMeta(rpcStore, args[0], seq, meta)
			if err != nil {
				return err
			}
			printChange(args[0], change)
			return nil
		},
	}
	incrCmd = &cobra.Command{
		Use:   "incr [sequence]",
		Short: "Increments a named sequence and prints the new value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := store.IncrSeq(rpcStore, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("sequence=%s, value=%d\n", args[0], seq)
			return nil
		},
	}
	sweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "Removes all expired values now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := store.ExpireKVs(rpcStore)
			if err != nil {
				return err
			}
			fmt.Printf("removed=%d\n", n)
			return nil
		},
	}
)

// conditionFlags reads the --seq and --ttl flags of a command
func conditionFlags(cmd *cobra.Command) (types.MatchSeq, *types.KVMeta, error) {
	raw, _ := cmd.Flags().GetString("seq")
	seq, err := util.ParseMatchSeq(raw)
	if err != nil {
		return seq, nil, err
	}
	var meta *types.KVMeta
	if ttl, _ := cmd.Flags().GetUint64("ttl"); ttl > 0 {
		meta = &types.KVMeta{ExpireAt: uint64(time.Now().Unix()) + ttl}
	}
	return seq, meta, nil
}

func formatValue(v *types.SeqValue) string {
	if v == nil {
		return "found=false"
	}
	s := fmt.Sprintf("found=true, seq=%d, value=%s", v.Seq, v.Value.Value)
	if v.Value.Meta != nil && v.Value.Meta.ExpireAt > 0 {
		s += fmt.Sprintf(", expires=%s", time.Unix(int64(v.Value.Meta.ExpireAt), 0).Format(time.RFC3339))
	}
	return s
}

func printChange(key string, change *types.Change[types.SeqValue]) {
	fmt.Printf("key=%s\n  prev:   %s\n  result: %s\n", key, formatValue(change.Prev), formatValue(change.Result))
}
