// Command datagroupd runs a single Data Group Member process, the
// replica-level replication and query-routing core of the cluster, and
// offers a thin client subcommand for exercising the query path against a
// running one: persistent log-level/log-json flags initialized via
// cobra.OnInitialize, one subcommand per role, and a Start/block-on-signal/
// Stop lifecycle.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/cuemby/vortex/pkg/devstore"
	"github.com/cuemby/vortex/pkg/member"
	"github.com/cuemby/vortex/pkg/partition"
	"github.com/cuemby/vortex/pkg/vlog"
	"github.com/cuemby/vortex/pkg/vmetrics"
	"github.com/cuemby/vortex/pkg/vrpc"
	"github.com/cuemby/vortex/pkg/vstorage"
	"github.com/cuemby/vortex/pkg/vtypes"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "datagroupd",
	Short: "Data Group Member daemon",
	Long: `datagroupd runs one replica of a partition group in a clustered
time-series database: election gating, consensus snapshot apply, cross-owner
state pulls and the query-routing RPC surface.`,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(queryCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	vlog.Init(vlog.Config{
		Level:      vlog.Level(logLevel),
		JSONOutput: logJSON,
	})
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a data group member",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetInt64("id")
		address, _ := cmd.Flags().GetString("address")
		metaPort, _ := cmd.Flags().GetInt("meta-port")
		peers, _ := cmd.Flags().GetStringSlice("peer")
		replicationFactor, _ := cmd.Flags().GetInt("replication-factor")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		certDir, _ := cmd.Flags().GetString("cert-dir")
		tlsServerName, _ := cmd.Flags().GetString("tls-server-name")
		heartbeat, _ := cmd.Flags().GetDuration("heartbeat-interval")
		metricsAddr, _ := cmd.Flags().GetString("metrics-address")

		local := vtypes.Node{ID: id, Address: address, MetaPort: metaPort}
		group, err := buildGroup(local, peers)
		if err != nil {
			return err
		}

		logger := vlog.WithMember(group.HeaderKey())

		logStore, err := vstorage.NewBoltLogStore(dataDir)
		if err != nil {
			return fmt.Errorf("open log store: %w", err)
		}
		logManager := partition.New(logStore, logger)

		store, err := devstore.New(dataDir)
		if err != nil {
			return fmt.Errorf("open dev store: %w", err)
		}
		// A standalone process owns slot 0 of its own group by default; a
		// real deployment has the metadata group member push assignments
		// down via Member.SyncSlots instead.
		store.AssignSlot(0, group.Header().ID)
		store.SetGroup(group)

		transport := member.NewTransport(certDir, tlsServerName)

		m, err := member.New(member.Config{
			Local:             local,
			InitialGroup:      group,
			ReplicationFactor: vtypes.ReplicationFactor(replicationFactor),
			HeartbeatInterval: heartbeat,
			LogManager:        logManager,
			Meta:              store,
			Schemas:           store,
			Storage:           store,
			Directory:         store,
			Groups:            store,
			Series:            store,
			Files:             store,
			Transport:         transport,
			Logger:            logger,
		})
		if err != nil {
			return fmt.Errorf("construct data group member: %w", err)
		}

		server, err := vrpc.NewServer(address, certDir, m)
		if err != nil {
			return fmt.Errorf("start rpc server: %w", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if err := m.Start(ctx); err != nil {
			return fmt.Errorf("start data group member: %w", err)
		}

		if metricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", vmetrics.Handler())
			go func() {
				if err := http.ListenAndServe(metricsAddr, mux); err != nil && err != http.ErrServerClosed {
					vlog.Logger.Error().Err(err).Msg("metrics server stopped")
				}
			}()
			vlog.Logger.Info().Str("addr", metricsAddr).Msg("metrics endpoint listening")
		}

		go func() {
			if err := server.Serve(); err != nil {
				vlog.Logger.Error().Err(err).Msg("rpc server stopped")
			}
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		vlog.Logger.Info().Msg("shutting down")
		server.Stop()
		m.Stop()
		_ = transport.Close()
		return nil
	},
}

func init() {
	startCmd.Flags().Int64("id", 1, "This node's id")
	startCmd.Flags().String("address", "127.0.0.1:9001", "Address to bind the data group RPC listener on")
	startCmd.Flags().Int("meta-port", 9101, "Metadata-group port advertised for this node")
	startCmd.Flags().StringSlice("peer", nil, "Other group members, id=address pairs in ring order (repeatable)")
	startCmd.Flags().Int("replication-factor", 3, "Configured replication factor R")
	startCmd.Flags().String("data-dir", "./datagroupd-data", "Data directory for the log store and staging files")
	startCmd.Flags().String("cert-dir", "", "Directory holding server.crt/server.key/ca.crt; empty disables mTLS")
	startCmd.Flags().String("tls-server-name", "", "Expected server name when dialing peers over mTLS")
	startCmd.Flags().Duration("heartbeat-interval", time.Second, "Leader heartbeat refresh interval")
	startCmd.Flags().String("metrics-address", "127.0.0.1:9401", "Address to serve /metrics on; empty disables it")
}

// buildGroup parses --peer values of the form "id=address" into a
// PartitionGroup with local as its first member, matching the ring-order
// convention AddNode expects new members to already respect.
func buildGroup(local vtypes.Node, peers []string) (vtypes.PartitionGroup, error) {
	members := []vtypes.Node{local}
	for _, p := range peers {
		idStr, addr, ok := strings.Cut(p, "=")
		if !ok {
			return vtypes.PartitionGroup{}, fmt.Errorf("invalid --peer %q, want id=address", p)
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return vtypes.PartitionGroup{}, fmt.Errorf("invalid --peer %q: %w", p, err)
		}
		members = append(members, vtypes.Node{ID: id, Address: addr})
	}
	return vtypes.PartitionGroup{Members: members}, nil
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a single-series query against a data group member",
	RunE: func(cmd *cobra.Command, args []string) error {
		target, _ := cmd.Flags().GetString("target")
		path, _ := cmd.Flags().GetString("path")
		certDir, _ := cmd.Flags().GetString("cert-dir")
		tlsServerName, _ := cmd.Flags().GetString("tls-server-name")
		fetchSize, _ := cmd.Flags().GetInt32("fetch-size")
		requesterID, _ := cmd.Flags().GetInt64("requester-id")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, err := vrpc.Dial(ctx, target, certDir, tlsServerName)
		if err != nil {
			return fmt.Errorf("dial %s: %w", target, err)
		}
		defer client.Close()

		queryID := uuid.New().String()
		requester := vtypes.Node{ID: requesterID}

		qresp, err := client.QuerySingleSeries(ctx, &vrpc.QuerySingleSeriesRequest{
			Path:      path,
			Requester: requester,
			QueryID:   queryID,
		})
		if err != nil {
			return fmt.Errorf("querySingleSeries: %w", err)
		}
		defer client.EndQuery(ctx, &vrpc.EndQueryRequest{Requester: requester, QueryID: queryID})

		fresp, err := client.FetchSingleSeries(ctx, &vrpc.FetchSingleSeriesRequest{
			ReaderID:  qresp.ReaderID,
			FetchSize: fetchSize,
		})
		if err != nil {
			return fmt.Errorf("fetchSingleSeries: %w", err)
		}

		fmt.Printf("query %s: reader %d, %d bytes returned\n", queryID, qresp.ReaderID, len(fresp.Data))
		return nil
	},
}

func init() {
	queryCmd.Flags().String("target", "127.0.0.1:9001", "Data group member address to query")
	queryCmd.Flags().String("path", "", "Measurement path to query")
	queryCmd.Flags().String("cert-dir", "", "Directory holding client.crt/client.key/ca.crt; empty disables mTLS")
	queryCmd.Flags().String("tls-server-name", "", "Expected server name when dialing the target over mTLS")
	queryCmd.Flags().Int32("fetch-size", 1000, "Number of samples to request per fetch")
	queryCmd.Flags().Int64("requester-id", 0, "Node id to report as the query's requester")
	_ = queryCmd.MarkFlagRequired("path")
}
