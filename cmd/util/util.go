package util

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/admariner/datafuse/lib/lockmgr"
	"github.com/admariner/datafuse/lib/store"
	"github.com/admariner/datafuse/lib/types"
	"github.com/admariner/datafuse/rpc/client"
	"github.com/admariner/datafuse/rpc/common"
	"github.com/admariner/datafuse/rpc/serializer"
	"github.com/admariner/datafuse/rpc/transport"
	"github.com/admariner/datafuse/rpc/transport/grpc"
	"github.com/admariner/datafuse/rpc/transport/http"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables (DMETA_<FLAG>)
	EnvPrefix = "dmeta"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// InitConfig loads .env files and binds environment variables to viper
func InitConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// SetupRPCClientFlags adds common RPC connection flags to a command group
func SetupRPCClientFlags(cmd *cobra.Command, defaultShard int) {
	key := "timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("The timeout in seconds of the client"))

	key = "transport-endpoints"
	cmd.PersistentFlags().String(key, "localhost:8080", WrapString("The address of the dmeta server. Multiple endpoints can be specified as a comma-separated list, requests are spread round-robin"))

	key = "transport-retries"
	cmd.PersistentFlags().Int(key, 3, WrapString("How many times to retry the request"))

	key = "shard"
	cmd.PersistentFlags().Int(key, defaultShard, WrapString("ID of the shard to connect to"))

	key = "stats"
	cmd.PersistentFlags().Bool(key, false, WrapString("Print client side latency statistics after the command"))

	cmd.PersistentPostRun = func(*cobra.Command, []string) {
		if viper.GetBool("stats") {
			client.WriteStats(os.Stdout)
		}
	}
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() common.ClientConfig {
	return common.ClientConfig{
		Endpoints:     strings.Split(viper.GetString("transport-endpoints"), ","),
		TimeoutSecond: viper.GetInt("timeout"),
		RetryCount:    viper.GetInt("transport-retries"),
		Transport:     viper.GetString("transport"),
		Serializer:    viper.GetString("serializer"),
	}
}

// GetShardID retrieves the configured shard ID
func GetShardID() uint64 {
	return viper.GetUint64("shard")
}

// GetSerializer creates the configured serializer
func GetSerializer() (serializer.IRPCSerializer, error) {
	return serializer.New(viper.GetString("serializer"))
}

// GetTransport creates the configured client transport
func GetTransport() (transport.IRPCClientTransport, error) {
	switch viper.GetString("transport") {
	case "http":
		return http.NewHttpClientTransport(), nil
	case "grpc":
		return grpc.NewGrpcClientTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s, must be one of http, grpc", viper.GetString("transport"))
	}
}

// GetServerTransport creates the configured server transport
func GetServerTransport() (transport.IRPCServerTransport, error) {
	switch viper.GetString("transport") {
	case "http":
		return http.NewHttpServerTransport(), nil
	case "grpc":
		return grpc.NewGrpcServerTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s, must be one of http, grpc", viper.GetString("transport"))
	}
}

// --------------------------------------------------------------------------
// Clients
// --------------------------------------------------------------------------

// NewStoreClient binds the flags of cmd and creates an RPC store client
func NewStoreClient(cmd *cobra.Command) (store.IStore, error) {
	if err := BindCommandFlags(cmd); err != nil {
		return nil, err
	}
	s, err := GetSerializer()
	if err != nil {
		return nil, err
	}
	t, err := GetTransport()
	if err != nil {
		return nil, err
	}
	return client.NewRPCStore(GetShardID(), GetClientConfig(), t, s)
}

// NewLockClient binds the flags of cmd and creates an RPC lock manager client
func NewLockClient(cmd *cobra.Command) (lockmgr.ILockManager, error) {
	if err := BindCommandFlags(cmd); err != nil {
		return nil, err
	}
	s, err := GetSerializer()
	if err != nil {
		return nil, err
	}
	t, err := GetTransport()
	if err != nil {
		return nil, err
	}
	return client.NewRPCLockMgr(GetShardID(), GetClientConfig(), t, s)
}

// --------------------------------------------------------------------------
// Parsing and Output
// --------------------------------------------------------------------------

// ParseMatchSeq parses a sequence condition: "any", "N" (exactly N, 0 = absent) or ">=N"
func ParseMatchSeq(s string) (types.MatchSeq, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || s == "any":
		return types.MatchAny(), nil
	case strings.HasPrefix(s, ">="):
		n, err := strconv.ParseUint(strings.TrimPrefix(s, ">="), 10, 64)
		if err != nil {
			return types.MatchSeq{}, fmt.Errorf("invalid seq condition %q: %w", s, err)
		}
		return types.MatchGE(n), nil
	default:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return types.MatchSeq{}, fmt.Errorf("invalid seq condition %q: %w", s, err)
		}
		return types.MatchExact(n), nil
	}
}

// ParseUint parses a positional uint64 argument
func ParseUint(name, s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", name, err)
	}
	return n, nil
}

// PrintJSON prints v as indented JSON
func PrintJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
