package cmd

import (
	"encoding/json"
	"time"

	"github.com/evanofslack/nmcli-sync/internal/failover"
	"github.com/evanofslack/nmcli-sync/internal/metrics"
	"github.com/spf13/cobra"
)

var (
	failoverWait     bool
	failoverWaitTask int64
	failoverTimeout  time.Duration
	failoverCheck    bool
)

// newFailoverAPI is replaced in tests.
var newFailoverAPI = func() (failover.API, error) {
	return failover.NewOVH(cfg.Failover, metrics.New(false))
}

func newFailoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "failover IP SERVICE",
		Short: "Route an OVH failover IP to a service",
		Long: `Moves a failover IP (or block) to the given OVH service when it is
routed elsewhere. Prints the result as JSON.`,
		Args: cobra.ExactArgs(2),
		RunE: runFailover,
	}
	cmd.Flags().BoolVar(&failoverWait, "wait", true, "wait for the move task to complete")
	cmd.Flags().Int64Var(&failoverWaitTask, "wait-task", 0, "wait for an earlier move task instead of moving")
	cmd.Flags().DurationVar(&failoverTimeout, "timeout", 0, "how long to wait for tasks (default from config)")
	cmd.Flags().BoolVar(&failoverCheck, "check", false, "report whether a move is needed without moving")
	return cmd
}

func runFailover(cmd *cobra.Command, args []string) error {
	api, err := newFailoverAPI()
	if err != nil {
		return err
	}

	timeout := failoverTimeout
	if timeout == 0 {
		timeout = cfg.Failover.Timeout
	}
	mover := failover.NewMover(api, cfg.Failover.PollInterval)
	result, err := mover.Move(cmd.Context(), failover.Request{
		IP:         args[0],
		Service:    args[1],
		Wait:       failoverWait,
		WaitTaskID: failoverWaitTask,
		Timeout:    timeout,
		Check:      failoverCheck,
	})
	if err != nil {
		return err
	}
	return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
}
