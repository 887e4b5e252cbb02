package failover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"time"
)

const (
	moveFunction        = "genericMoveFloatingIp"
	statusTodo          = "todo"
	statusDone          = "done"
	defaultTimeout      = 120 * time.Second
	defaultPollInterval = 5 * time.Second
	pendingInterval     = time.Second
)

var (
	ErrNotFound = errors.New("failover ip not found")
	ErrTimeout  = errors.New("timed out waiting for task")
)

type Request struct {
	// IP is a single address or a block such as 1.1.1.1/28.
	IP      string
	Service string
	// Wait polls the move task until it is done.
	Wait bool
	// WaitTaskID skips the move and waits for an earlier task instead.
	WaitTaskID int64
	Timeout    time.Duration
	// Check reports whether a move is needed without performing it.
	Check bool
}

type Result struct {
	Changed bool  `json:"changed"`
	Moved   bool  `json:"moved"`
	TaskID  int64 `json:"taskId,omitempty"`
	Waited  bool  `json:"waited"`
}

type Task struct {
	TaskID   int64  `json:"taskId"`
	Function string `json:"function"`
	Status   string `json:"status"`
}

type ipProperties struct {
	RoutedTo struct {
		ServiceName string `json:"serviceName"`
	} `json:"routedTo"`
}

type Mover struct {
	api             API
	pollInterval    time.Duration
	pendingInterval time.Duration
}

func NewMover(api API, pollInterval time.Duration) *Mover {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Mover{
		api:             api,
		pollInterval:    pollInterval,
		pendingInterval: min(pendingInterval, pollInterval),
	}
}

// Move routes req.IP to req.Service. Nothing is posted when the IP already
// points at the service.
func (m *Mover) Move(ctx context.Context, req Request) (Result, error) {
	var result Result
	if req.IP == "" || req.Service == "" {
		return result, fmt.Errorf("ip and service required")
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	query := url.Values{"ip": {req.IP}, "type": {"failover"}}
	var ips []string
	if err := m.api.GetWithContext(ctx, "/ip?"+query.Encode(), &ips); err != nil {
		return result, fmt.Errorf("list failover ips: %w", err)
	}
	if !slices.Contains(ips, req.IP) && !slices.Contains(ips, req.IP+"/32") {
		return result, fmt.Errorf("%w: %s", ErrNotFound, req.IP)
	}

	if err := m.waitNoPending(ctx, req.IP, timeout); err != nil {
		return result, err
	}

	var props ipProperties
	if err := m.api.GetWithContext(ctx, ipPath(req.IP), &props); err != nil {
		return result, fmt.Errorf("get ip properties: %w", err)
	}
	if props.RoutedTo.ServiceName == req.Service {
		slog.Info("Failover ip already routed", "ip", req.IP, "service", req.Service)
		return result, nil
	}
	result.Changed = true
	if req.Check {
		slog.Info("Check mode, not moving failover ip", "ip", req.IP, "from", props.RoutedTo.ServiceName, "to", req.Service)
		return result, nil
	}

	taskID := req.WaitTaskID
	if taskID == 0 {
		var task Task
		body := map[string]string{"to": req.Service}
		if err := m.api.PostWithContext(ctx, ipPath(req.IP)+"/move", body, &task); err != nil {
			return result, fmt.Errorf("move ip: %w", err)
		}
		taskID = task.TaskID
		result.Moved = true
		slog.Info("Moving failover ip", "ip", req.IP, "from", props.RoutedTo.ServiceName, "to", req.Service, "task", taskID)
	}
	result.TaskID = taskID

	if req.Wait || req.WaitTaskID != 0 {
		if err := m.waitDone(ctx, req.IP, taskID, timeout); err != nil {
			return result, err
		}
		result.Waited = true
	}
	return result, nil
}

func (m *Mover) waitNoPending(ctx context.Context, ip string, timeout time.Duration) error {
	query := url.Values{"function": {moveFunction}, "status": {statusTodo}}
	path := ipPath(ip) + "/task?" + query.Encode()
	deadline := time.Now().Add(timeout)
	for {
		var pending []int64
		if err := m.api.GetWithContext(ctx, path, &pending); err != nil {
			return fmt.Errorf("list pending tasks: %w", err)
		}
		if len(pending) == 0 {
			return nil
		}
		slog.Debug("Waiting for pending tasks", "ip", ip, "tasks", pending)
		if err := pause(ctx, m.pendingInterval, deadline); err != nil {
			return fmt.Errorf("pending tasks on %s after %s: %w", ip, timeout, err)
		}
	}
}

func (m *Mover) waitDone(ctx context.Context, ip string, taskID int64, timeout time.Duration) error {
	path := fmt.Sprintf("%s/task/%d", ipPath(ip), taskID)
	deadline := time.Now().Add(timeout)
	for {
		var task Task
		if err := m.api.GetWithContext(ctx, path, &task); err != nil {
			return fmt.Errorf("get task %d: %w", taskID, err)
		}
		if task.Status == statusDone {
			return nil
		}
		slog.Debug("Waiting for task", "ip", ip, "task", taskID, "status", task.Status)
		if err := pause(ctx, m.pollInterval, deadline); err != nil {
			return fmt.Errorf("task %d on %s after %s: %w", taskID, ip, timeout, err)
		}
	}
}

// pause sleeps for d, or returns ErrTimeout when that would pass deadline.
func pause(ctx context.Context, d time.Duration, deadline time.Time) error {
	if time.Now().Add(d).After(deadline) {
		return ErrTimeout
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func ipPath(ip string) string {
	return "/ip/" + url.PathEscape(ip)
}
