package docker

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/zorak1103/berth/pkg/opts"
	"github.com/zorak1103/berth/pkg/transport"
)

// Networks is the network collection of a Client.
type Networks struct {
	client *Client
}

// List returns one handle per network, each carrying its list entry.
func (ns *Networks) List(ctx context.Context, o *opts.ListNetworksOpts) ([]*Network, error) {
	q, err := o.Query()
	if err != nil {
		return nil, err
	}

	var resources []NetworkResource
	if err := ns.client.get(ctx, "/networks", q, &resources); err != nil {
		return nil, fmt.Errorf("failed to list networks: %w", err)
	}

	networks := make([]*Network, 0, len(resources))
	for i := range resources {
		n := newNetwork(ns.client, resources[i].ID)
		n.data = &resources[i]
		networks = append(networks, n)
	}
	return networks, nil
}

// Create creates a network. The returned handle has no metadata until it
// is inspected.
func (ns *Networks) Create(ctx context.Context, o *opts.NetworkCreateOpts) (*Network, error) {
	body, err := o.Body()
	if err != nil {
		return nil, err
	}
	var resp NetworkCreateResponse
	if err := ns.client.post(ctx, "/networks/create", nil, body, &resp); err != nil {
		return nil, fmt.Errorf("failed to create network: %w", err)
	}
	if resp.Warning != "" {
		ns.client.log.WithField("network", resp.ID).Warn(resp.Warning)
	}
	return newNetwork(ns.client, resp.ID), nil
}

// Prune removes unused networks.
func (ns *Networks) Prune(ctx context.Context, o *opts.PruneOpts) ([]string, error) {
	q, err := o.Query()
	if err != nil {
		return nil, err
	}
	var report struct {
		NetworksDeleted []string `json:"NetworksDeleted"`
	}
	if err := ns.client.post(ctx, "/networks/prune", q, nil, &report); err != nil {
		return nil, fmt.Errorf("failed to prune networks: %w", err)
	}
	return report.NetworksDeleted, nil
}

// Get returns a handle for a network ID or name without contacting the daemon.
func (ns *Networks) Get(id string) *Network {
	return newNetwork(ns.client, id)
}

// Network is a handle on one network.
type Network struct {
	id     string
	client *Client

	mu   sync.RWMutex
	data *NetworkResource
}

func newNetwork(c *Client, id string) *Network {
	return &Network{id: id, client: c}
}

// ID returns the ID or name the handle was created with.
func (n *Network) ID() string {
	return n.id
}

// Data returns the last known metadata, from a list or an inspect, or nil.
func (n *Network) Data() *NetworkResource {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.data
}

func (n *Network) path(action string) string {
	p := "/networks/" + n.id
	if action != "" {
		p += "/" + action
	}
	return p
}

// Inspect fetches the network and stores it as the new snapshot.
func (n *Network) Inspect(ctx context.Context) (*NetworkResource, error) {
	var data NetworkResource
	if err := n.client.get(ctx, n.path(""), nil, &data); err != nil {
		return nil, fmt.Errorf("failed to inspect network %s: %w", n.id, err)
	}
	n.mu.Lock()
	n.data = &data
	n.mu.Unlock()
	return &data, nil
}

// Remove deletes the network.
func (n *Network) Remove(ctx context.Context) error {
	if _, err := n.client.transport.Call(ctx, transport.NewRequest(http.MethodDelete, n.path(""), nil)); err != nil {
		return fmt.Errorf("failed to remove network %s: %w", n.id, err)
	}
	return nil
}

// Connect attaches a container to the network.
func (n *Network) Connect(ctx context.Context, o *opts.NetworkConnectOpts) error {
	body, err := o.Body()
	if err != nil {
		return err
	}
	if err := n.client.post(ctx, n.path("connect"), nil, body, nil); err != nil {
		return fmt.Errorf("failed to connect to network %s: %w", n.id, err)
	}
	return nil
}

// Disconnect detaches a container from the network.
func (n *Network) Disconnect(ctx context.Context, o *opts.NetworkDisconnectOpts) error {
	body, err := o.Body()
	if err != nil {
		return err
	}
	if err := n.client.post(ctx, n.path("disconnect"), nil, body, nil); err != nil {
		return fmt.Errorf("failed to disconnect from network %s: %w", n.id, err)
	}
	return nil
}
