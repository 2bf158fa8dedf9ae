package docker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/zorak1103/berth/pkg/decode"
	apperrors "github.com/zorak1103/berth/pkg/errors"
	"github.com/zorak1103/berth/pkg/opts"
	"github.com/zorak1103/berth/pkg/transport"
)

// Containers is the container collection of a Client.
type Containers struct {
	client *Client
}

// List returns one handle per container, in the order the daemon reported
// them, each carrying its list entry as summary.
func (cs *Containers) List(ctx context.Context, o *opts.ListContainersOpts) ([]*Container, error) {
	q, err := o.Query()
	if err != nil {
		return nil, err
	}

	var summaries []ContainerSummary
	if err := cs.client.get(ctx, "/containers/json", q, &summaries); err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	containers := make([]*Container, 0, len(summaries))
	for i := range summaries {
		ctr := newContainer(cs.client, summaries[i].ID)
		ctr.summary = &summaries[i]
		containers = append(containers, ctr)
	}
	return containers, nil
}

// Create creates a container. name may be empty to let the daemon pick one.
// The returned handle has no metadata until it is inspected.
func (cs *Containers) Create(ctx context.Context, name string, o *opts.ContainerCreateOpts) (*Container, error) {
	body, err := o.Body()
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	if name != "" {
		q.Set("name", name)
	}

	var resp CreateResponse
	if err := cs.client.post(ctx, "/containers/create", q, body, &resp); err != nil {
		return nil, fmt.Errorf("failed to create container %q: %w", name, err)
	}
	for _, w := range resp.Warnings {
		cs.client.log.WithField("container", resp.ID).Warn(w)
	}
	return newContainer(cs.client, resp.ID), nil
}

// Prune removes stopped containers.
func (cs *Containers) Prune(ctx context.Context, o *opts.PruneOpts) (*PruneReport, error) {
	q, err := o.Query()
	if err != nil {
		return nil, err
	}
	var report PruneReport
	if err := cs.client.post(ctx, "/containers/prune", q, nil, &report); err != nil {
		return nil, fmt.Errorf("failed to prune containers: %w", err)
	}
	return &report, nil
}

// Get returns a handle for a container ID or name without contacting the daemon.
func (cs *Containers) Get(id string) *Container {
	return newContainer(cs.client, id)
}

// Container is a handle on one container. The daemon validates every
// action; the handle tracks no state besides its metadata snapshots.
type Container struct {
	id     string
	client *Client

	mu      sync.RWMutex
	summary *ContainerSummary
	details *ContainerInspect
}

func newContainer(c *Client, id string) *Container {
	return &Container{id: id, client: c}
}

// ID returns the ID (or name) the handle was created with.
func (c *Container) ID() string {
	return c.id
}

// Summary returns the list entry the handle was built from, or nil.
func (c *Container) Summary() *ContainerSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.summary
}

// Details returns the last inspect result, or nil if never inspected.
func (c *Container) Details() *ContainerInspect {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.details
}

// Name returns the first known name of the container without the leading
// slash, or "" if no metadata was fetched yet.
func (c *Container) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name := ""
	switch {
	case c.details != nil:
		name = c.details.Name
	case c.summary != nil && len(c.summary.Names) > 0:
		name = c.summary.Names[0]
	}
	if name != "" && name[0] == '/' {
		name = name[1:]
	}
	return name
}

func (c *Container) path(action string) string {
	p := "/containers/" + c.id
	if action != "" {
		p += "/" + action
	}
	return p
}

// Inspect fetches the container details and stores them as the new snapshot.
func (c *Container) Inspect(ctx context.Context) (*ContainerInspect, error) {
	var details ContainerInspect
	if err := c.client.get(ctx, c.path("json"), nil, &details); err != nil {
		return nil, fmt.Errorf("failed to inspect container %s: %w", c.id, err)
	}
	c.mu.Lock()
	c.details = &details
	c.mu.Unlock()
	return &details, nil
}

func (c *Container) action(ctx context.Context, action string, q url.Values) error {
	if err := c.client.post(ctx, c.path(action), q, nil, nil); err != nil {
		return fmt.Errorf("failed to %s container %s: %w", action, c.id, err)
	}
	return nil
}

// Start starts the container.
func (c *Container) Start(ctx context.Context) error {
	return c.action(ctx, "start", nil)
}

// Stop stops the container. o may be nil.
func (c *Container) Stop(ctx context.Context, o *opts.StopOpts) error {
	q, err := o.Query()
	if err != nil {
		return err
	}
	return c.action(ctx, "stop", q)
}

// Restart restarts the container. o may be nil.
func (c *Container) Restart(ctx context.Context, o *opts.StopOpts) error {
	q, err := o.Query()
	if err != nil {
		return err
	}
	return c.action(ctx, "restart", q)
}

// Kill sends a signal to the container. o may be nil.
func (c *Container) Kill(ctx context.Context, o *opts.KillOpts) error {
	q, err := o.Query()
	if err != nil {
		return err
	}
	return c.action(ctx, "kill", q)
}

// Pause freezes all processes of the container.
func (c *Container) Pause(ctx context.Context) error {
	return c.action(ctx, "pause", nil)
}

// Unpause resumes a paused container.
func (c *Container) Unpause(ctx context.Context) error {
	return c.action(ctx, "unpause", nil)
}

// Rename gives the container a new name. The handle keeps its ID.
func (c *Container) Rename(ctx context.Context, name string) error {
	if name == "" {
		return &apperrors.UsageError{Field: "container name", Reason: "must not be empty"}
	}
	return c.action(ctx, "rename", url.Values{"name": {name}})
}

// Remove deletes the container. o may be nil.
func (c *Container) Remove(ctx context.Context, o *opts.RemoveContainerOpts) error {
	q, err := o.Query()
	if err != nil {
		return err
	}
	if _, err := c.client.transport.Call(ctx, transport.NewRequest(http.MethodDelete, c.path(""), q)); err != nil {
		return fmt.Errorf("failed to remove container %s: %w", c.id, err)
	}
	return nil
}

// Wait blocks until the container reaches condition ("not-running",
// "next-exit", "removed"; empty means the daemon default) and returns its
// exit status.
func (c *Container) Wait(ctx context.Context, condition string) (*WaitResponse, error) {
	var q url.Values
	if condition != "" {
		q = url.Values{"condition": {condition}}
	}
	var resp WaitResponse
	if err := c.client.post(ctx, c.path("wait"), q, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to wait for container %s: %w", c.id, err)
	}
	return &resp, nil
}

// Top lists the processes running in the container. psArgs are passed to ps
// on the daemon host; empty means "-ef".
func (c *Container) Top(ctx context.Context, psArgs string) ([]Process, error) {
	var q url.Values
	if psArgs != "" {
		q = url.Values{"ps_args": {psArgs}}
	}
	var top TopResponse
	if err := c.client.get(ctx, c.path("top"), q, &top); err != nil {
		return nil, fmt.Errorf("failed to list processes of container %s: %w", c.id, err)
	}

	processes := make([]Process, 0, len(top.Processes))
	for i, row := range top.Processes {
		if len(row) != len(top.Titles) {
			return nil, &apperrors.DecodeError{
				Field: fmt.Sprintf("Processes[%d]", i),
				Err:   fmt.Errorf("row has %d columns, expected %d", len(row), len(top.Titles)),
			}
		}
		p := make(Process, len(row))
		for j, title := range top.Titles {
			p[title] = row[j]
		}
		processes = append(processes, p)
	}
	return processes, nil
}

func (c *Container) stat(header http.Header) (*FileInfo, error) {
	raw := header.Get("X-Docker-Container-Path-Stat")
	if raw == "" {
		return nil, &apperrors.DecodeError{Field: "X-Docker-Container-Path-Stat", Err: fmt.Errorf("header missing")}
	}
	data, err := decodeBase64(raw)
	if err != nil {
		return nil, &apperrors.DecodeError{Field: "X-Docker-Container-Path-Stat", Err: err}
	}
	info, err := decode.JSON[FileInfo](data)
	if err != nil {
		return nil, err
	}
	return &info, nil
}
