package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Al-assad/potamoi-experiment/internal/fcid"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "One-shot cluster lifecycle operations (kill, track, untrack)",
}

var killCmd = &cobra.Command{
	Use:   "kill <clusterId> <namespace>",
	Short: "Delete a Flink cluster's JobManager Deployment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := bootstrap(loaded, buildLogger(loaded.LogLevel))
		if err != nil {
			return err
		}
		id := fcid.New(args[0], args[1])
		if err := deps.Engine.KillCluster(context.Background(), id); err != nil {
			return fmt.Errorf("kill cluster %s: %w", id, err)
		}
		fmt.Printf("deleted jobmanager deployment for %s\n", id)
		return nil
	},
}

var trackCmd = &cobra.Command{
	Use:   "track <clusterId> <namespace>",
	Short: "Start tracker entities for a Flink cluster",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := bootstrap(loaded, buildLogger(loaded.LogLevel))
		if err != nil {
			return err
		}
		id := fcid.New(args[0], args[1])
		if err := deps.Facade.TrackCluster(context.Background(), id); err != nil {
			return fmt.Errorf("track cluster %s: %w", id, err)
		}
		fmt.Printf("tracking %s\n", id)
		return nil
	},
}

var untrackCmd = &cobra.Command{
	Use:   "untrack <clusterId> <namespace>",
	Short: "Stop tracker entities and purge their cache entries",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := bootstrap(loaded, buildLogger(loaded.LogLevel))
		if err != nil {
			return err
		}
		id := fcid.New(args[0], args[1])
		if err := deps.Facade.UnTrackCluster(context.Background(), id); err != nil {
			return fmt.Errorf("untrack cluster %s: %w", id, err)
		}
		fmt.Printf("untracked %s\n", id)
		return nil
	},
}

func init() {
	clusterCmd.AddCommand(killCmd, trackCmd, untrackCmd)
}
