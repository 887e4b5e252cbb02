package failover

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/evanofslack/nmcli-sync/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	responses map[string][]any // successive responses per url, last one repeats
	errs      map[string]error
	gets      []string
	posts     []string
	bodies    []any
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{responses: map[string][]any{}, errs: map[string]error{}}
}

func (f *fakeAPI) on(url string, responses ...any) *fakeAPI {
	f.responses[url] = responses
	return f
}

func (f *fakeAPI) respond(url string, resType any) error {
	if err := f.errs[url]; err != nil {
		return err
	}
	queue, ok := f.responses[url]
	if !ok || len(queue) == 0 {
		return errors.New("unexpected request " + url)
	}
	res := queue[0]
	if len(queue) > 1 {
		f.responses[url] = queue[1:]
	}
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, resType)
}

func (f *fakeAPI) GetWithContext(_ context.Context, url string, resType interface{}) error {
	f.gets = append(f.gets, url)
	return f.respond(url, resType)
}

func (f *fakeAPI) PostWithContext(_ context.Context, url string, reqBody, resType interface{}) error {
	f.posts = append(f.posts, url)
	f.bodies = append(f.bodies, reqBody)
	return f.respond(url, resType)
}

const (
	listURL    = "/ip?ip=1.1.1.1&type=failover"
	pendingURL = "/ip/1.1.1.1/task?function=genericMoveFloatingIp&status=todo"
	propsURL   = "/ip/1.1.1.1"
	moveURL    = "/ip/1.1.1.1/move"
	taskURL    = "/ip/1.1.1.1/task/42"
)

func routedTo(service string) map[string]any {
	return map[string]any{"routedTo": map[string]any{"serviceName": service}}
}

func TestMove(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(f *fakeAPI)
		req      Request
		expected Result
		posts    int
	}{
		{
			name: "already routed",
			setup: func(f *fakeAPI) {
				f.on(listURL, []string{"1.1.1.1/32"}).
					on(pendingURL, []int64{}).
					on(propsURL, routedTo("ns1.ovh.net"))
			},
			req:      Request{IP: "1.1.1.1", Service: "ns1.ovh.net", Wait: true},
			expected: Result{},
		},
		{
			name: "move and wait",
			setup: func(f *fakeAPI) {
				f.on(listURL, []string{"1.1.1.1"}).
					on(pendingURL, []int64{7}, []int64{}).
					on(propsURL, routedTo("ns2.ovh.net")).
					on(moveURL, Task{TaskID: 42, Status: statusTodo}).
					on(taskURL, Task{TaskID: 42, Status: "doing"}, Task{TaskID: 42, Status: statusDone})
			},
			req:      Request{IP: "1.1.1.1", Service: "ns1.ovh.net", Wait: true},
			expected: Result{Changed: true, Moved: true, TaskID: 42, Waited: true},
			posts:    1,
		},
		{
			name: "move without waiting",
			setup: func(f *fakeAPI) {
				f.on(listURL, []string{"1.1.1.1"}).
					on(pendingURL, []int64{}).
					on(propsURL, routedTo("ns2.ovh.net")).
					on(moveURL, Task{TaskID: 42})
			},
			req:      Request{IP: "1.1.1.1", Service: "ns1.ovh.net"},
			expected: Result{Changed: true, Moved: true, TaskID: 42},
			posts:    1,
		},
		{
			name: "wait for earlier task",
			setup: func(f *fakeAPI) {
				f.on(listURL, []string{"1.1.1.1"}).
					on(pendingURL, []int64{}).
					on(propsURL, routedTo("ns2.ovh.net")).
					on(taskURL, Task{TaskID: 42, Status: statusDone})
			},
			req:      Request{IP: "1.1.1.1", Service: "ns1.ovh.net", WaitTaskID: 42},
			expected: Result{Changed: true, TaskID: 42, Waited: true},
		},
		{
			name: "check mode",
			setup: func(f *fakeAPI) {
				f.on(listURL, []string{"1.1.1.1"}).
					on(pendingURL, []int64{}).
					on(propsURL, routedTo("ns2.ovh.net"))
			},
			req:      Request{IP: "1.1.1.1", Service: "ns1.ovh.net", Wait: true, Check: true},
			expected: Result{Changed: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			tt.setup(api)
			mover := NewMover(api, time.Millisecond)

			got, err := mover.Move(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.Len(t, api.posts, tt.posts)
		})
	}
}

func TestMoveBody(t *testing.T) {
	api := newFakeAPI().
		on(listURL, []string{"1.1.1.1"}).
		on(pendingURL, []int64{}).
		on(propsURL, routedTo("ns2.ovh.net")).
		on(moveURL, Task{TaskID: 42})

	_, err := NewMover(api, time.Millisecond).Move(context.Background(), Request{IP: "1.1.1.1", Service: "ns1.ovh.net"})
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]string{"to": "ns1.ovh.net"}}, api.bodies)
}

func TestMoveBlockEscaped(t *testing.T) {
	api := newFakeAPI().
		on("/ip?ip=1.1.1.0%2F28&type=failover", []string{"1.1.1.0/28"}).
		on("/ip/1.1.1.0%2F28/task?function=genericMoveFloatingIp&status=todo", []int64{}).
		on("/ip/1.1.1.0%2F28", routedTo("ns1.ovh.net"))

	got, err := NewMover(api, time.Millisecond).Move(context.Background(), Request{IP: "1.1.1.0/28", Service: "ns1.ovh.net"})
	require.NoError(t, err)
	assert.False(t, got.Changed)
}

func TestMoveErrors(t *testing.T) {
	apiErr := errors.New("invalid credentials")

	tests := []struct {
		name     string
		setup    func(f *fakeAPI)
		req      Request
		expected error
	}{
		{
			name:  "missing service",
			setup: func(f *fakeAPI) {},
			req:   Request{IP: "1.1.1.1"},
		},
		{
			name:     "unknown ip",
			setup:    func(f *fakeAPI) { f.on(listURL, []string{"2.2.2.2"}) },
			req:      Request{IP: "1.1.1.1", Service: "ns1.ovh.net"},
			expected: ErrNotFound,
		},
		{
			name:     "list failure",
			setup:    func(f *fakeAPI) { f.errs[listURL] = apiErr },
			req:      Request{IP: "1.1.1.1", Service: "ns1.ovh.net"},
			expected: apiErr,
		},
		{
			name: "pending tasks never clear",
			setup: func(f *fakeAPI) {
				f.on(listURL, []string{"1.1.1.1"}).on(pendingURL, []int64{7})
			},
			req:      Request{IP: "1.1.1.1", Service: "ns1.ovh.net", Timeout: 20 * time.Millisecond},
			expected: ErrTimeout,
		},
		{
			name: "task never done",
			setup: func(f *fakeAPI) {
				f.on(listURL, []string{"1.1.1.1"}).
					on(pendingURL, []int64{}).
					on(propsURL, routedTo("ns2.ovh.net")).
					on(moveURL, Task{TaskID: 42}).
					on(taskURL, Task{TaskID: 42, Status: "doing"})
			},
			req:      Request{IP: "1.1.1.1", Service: "ns1.ovh.net", Wait: true, Timeout: 20 * time.Millisecond},
			expected: ErrTimeout,
		},
		{
			name: "move failure",
			setup: func(f *fakeAPI) {
				f.on(listURL, []string{"1.1.1.1"}).
					on(pendingURL, []int64{}).
					on(propsURL, routedTo("ns2.ovh.net"))
				f.errs[moveURL] = apiErr
			},
			req:      Request{IP: "1.1.1.1", Service: "ns1.ovh.net"},
			expected: apiErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			tt.setup(api)

			_, err := NewMover(api, time.Millisecond).Move(context.Background(), tt.req)
			require.Error(t, err)
			if tt.expected != nil {
				assert.ErrorIs(t, err, tt.expected)
			}
		})
	}
}

func TestMoveCanceled(t *testing.T) {
	api := newFakeAPI().
		on(listURL, []string{"1.1.1.1"}).
		on(pendingURL, []int64{7})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMover(api, time.Hour).Move(ctx, Request{IP: "1.1.1.1", Service: "ns1.ovh.net", Timeout: 2 * time.Hour})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInstrument(t *testing.T) {
	api := newFakeAPI().on(listURL, []string{"1.1.1.1"})
	p := Instrument(api, metrics.New(false))

	var ips []string
	require.NoError(t, p.GetWithContext(context.Background(), listURL, &ips))
	assert.Equal(t, []string{"1.1.1.1"}, ips)
	assert.Error(t, p.PostWithContext(context.Background(), moveURL, nil, &Task{}))
}
