package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/0xAtelerix/sdk/gosdk"
	"github.com/0xAtelerix/sdk/gosdk/rpc"
	"github.com/0xAtelerix/sdk/gosdk/txpool"
	"github.com/fxamacker/cbor/v2"
	"github.com/ledgerwatch/erigon-lib/kv"
	"github.com/ledgerwatch/erigon-lib/kv/mdbx"
	mdbxlog "github.com/ledgerwatch/log/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/godappslab/internal-distribution-token/application"
	"github.com/godappslab/internal-distribution-token/application/api"
)

const ChainID = 42

type RuntimeArgs struct {
	EmitterPort      string
	AppchainDBPath   string
	EventStreamDir   string
	TxStreamDir      string
	LocalDBPath      string
	RPCPort          string
	MutlichainConfig gosdk.MultichainConfig
	LogLevel         zerolog.Level
	Token            TokenArgs
	ABIOut           string
}

func main() {
	// Context with cancel for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	RunCLI(ctx)
}

func RunCLI(ctx context.Context) {
	config := gosdk.MakeAppchainConfig(ChainID, nil)

	// Use a local FlagSet (no globals).
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)

	emitterPort := fs.String("emitter-port", config.EmitterPort, "Emitter gRPC port")
	appchainDBPath := fs.String("db-path", config.AppchainDBPath, "Path to appchain DB")
	streamDir := fs.String("stream-dir", config.EventStreamDir, "Event stream directory")
	txDir := fs.String("tx-dir", config.TxStreamDir, "Transaction stream directory")

	localDBPath := fs.String("local-db-path", "./localdb", "Path to local DB")
	rpcPort := fs.String("rpc-port", ":8080", "Port for the JSON-RPC server")
	multichainConfigJSON := fs.String("multichain-config", "", "Multichain config JSON path")
	logLevel := fs.Int("log-level", int(zerolog.InfoLevel), "Logging level")
	abiOut := fs.String("abi-out", "", "Write the token ABI to this path on startup")

	tokenArgs := registerTokenFlags(fs)

	_ = fs.Parse(os.Args[1:])

	if *logLevel > int(zerolog.Disabled) {
		*logLevel = int(zerolog.DebugLevel)
	} else if *logLevel < int(zerolog.TraceLevel) {
		*logLevel = int(zerolog.TraceLevel)
	}

	var mcDbs gosdk.MultichainConfig

	if multichainConfigJSON != nil && *multichainConfigJSON != "" {
		f, err := os.ReadFile(*multichainConfigJSON)
		if err != nil {
			log.Panic().Err(err).Msg("Error reading multichain config")
		}

		err = json.Unmarshal(f, &mcDbs)
		if err != nil {
			log.Warn().Err(err).Msg("Error unmarshalling multichain config")
		}
	}

	args := RuntimeArgs{
		EmitterPort:      *emitterPort,
		AppchainDBPath:   *appchainDBPath,
		EventStreamDir:   *streamDir,
		TxStreamDir:      *txDir,
		LocalDBPath:      *localDBPath,
		RPCPort:          *rpcPort,
		LogLevel:         zerolog.Level(*logLevel),
		MutlichainConfig: mcDbs,
		Token:            *tokenArgs,
		ABIOut:           *abiOut,
	}

	Run(ctx, args, nil)
}

func Run(ctx context.Context, args RuntimeArgs, _ chan<- int) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(args.LogLevel)

	// Cancel on SIGINT/SIGTERM too (centralized; no per-runner signal goroutines needed)
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if args.ABIOut != "" {
		if err := application.WriteABI(args.ABIOut); err != nil {
			log.Fatal().Err(err).Str("path", args.ABIOut).Msg("Failed to write token ABI")
		}

		log.Info().Str("path", args.ABIOut).Msg("Token ABI written")
	}

	config := gosdk.MakeAppchainConfig(ChainID, args.MutlichainConfig)

	config.EmitterPort = args.EmitterPort
	config.AppchainDBPath = args.AppchainDBPath
	config.EventStreamDir = args.EventStreamDir
	config.TxStreamDir = args.TxStreamDir

	chainDBs, err := gosdk.NewMultichainStateAccessDB(args.MutlichainConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create multichain db")
	}

	msa := gosdk.NewMultichainStateAccess(chainDBs)

	appchainDB, err := mdbx.NewMDBX(mdbxlog.New()).
		Path(config.AppchainDBPath).
		WithTableCfg(func(_ kv.TableCfg) kv.TableCfg {
			return gosdk.MergeTables(
				gosdk.DefaultTables(),
				application.Tables(),
			)
		}).Open()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to appchain mdbx database")
	}

	defer appchainDB.Close()

	subs, err := gosdk.NewSubscriber(ctx, appchainDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create subscriber")
	}

	stateTransition := gosdk.NewBatchProcesser[application.Transaction[application.Receipt]](
		application.NewStateTransition(msa),
		msa,
		subs,
	)

	localDB, err := mdbx.NewMDBX(mdbxlog.New()).
		Path(args.LocalDBPath).
		WithTableCfg(func(_ kv.TableCfg) kv.TableCfg {
			return txpool.Tables()
		}).
		Open()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to local mdbx database")
	}

	defer localDB.Close()

	// fixme dynamic val set. Right now it is especially for local development with pelacli
	valset := &gosdk.ValidatorSet{Set: map[gosdk.ValidatorID]gosdk.Stake{0: 100}}

	var epochKey [4]byte
	binary.BigEndian.PutUint32(epochKey[:], 1)

	valsetData, err := cbor.Marshal(valset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal validator set data")
	}

	err = appchainDB.Update(ctx, func(tx kv.RwTx) error {
		return tx.Put(gosdk.ValsetBucket, epochKey[:], valsetData)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to appchain mdbx database")
	}

	txPool := txpool.NewTxPool[application.Transaction[application.Receipt]](
		localDB,
	)

	txBatchDB, err := mdbx.NewMDBX(mdbxlog.New()).
		Path(config.TxStreamDir).
		WithTableCfg(func(_ kv.TableCfg) kv.TableCfg {
			return gosdk.TxBucketsTables()
		}).
		Readonly().Open()
	if err != nil {
		log.Fatal().Str("path", config.TxStreamDir).Err(err).Msg("Failed to tx batch mdbx database")
	}

	// Genesis must be in place before the first batch can reach the ledger.
	token, err := openToken(ctx, appchainDB, args.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize token")
	}

	info := token.Info()
	log.Info().
		Str("name", info.Name).
		Str("symbol", info.Symbol).
		Str("owner", info.Owner.Hex()).
		Str("total_supply", info.TotalSupply.Dec()).
		Msg("Starting token appchain...")

	appchain := gosdk.NewAppchain(
		stateTransition,
		application.BlockConstructor,
		txPool,
		config,
		appchainDB,
		subs,
		msa,
		txBatchDB,
	)

	rpcServer := rpc.NewStandardRPCServer(nil)
	rpcServer.AddMiddleware(api.NewRequestLogger(log.Logger))

	// sendTransaction, getTransactionStatus, getTransactionReceipt, ...
	rpc.AddStandardMethods(rpcServer, appchainDB, txPool)

	customRPC, err := api.NewCustomRPC(rpcServer, appchainDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create token RPC")
	}

	customRPC.AddRPCMethods()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// The RPC surface stays up for reads when the runner stops.
		if runErr := appchain.Run(gctx, nil); runErr != nil {
			log.Error().Err(runErr).Msg("Appchain runner stopped")
		}

		return nil
	})

	g.Go(func() error {
		log.Info().Msg("Starting RPC server on " + args.RPCPort)

		return rpcServer.StartHTTPServer(gctx, args.RPCPort)
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Failed to start RPC server")
	}

	log.Info().Msg("Token appchain stopped")
}
