package opts

import "net/url"

// ListNetworksOpts configures GET /networks.
type ListNetworksOpts struct {
	q query
}

// NewListNetworksOpts returns an empty builder.
func NewListNetworksOpts() *ListNetworksOpts {
	return &ListNetworksOpts{}
}

// Filter adds a daemon-side filter (e.g., "driver", "bridge").
func (o *ListNetworksOpts) Filter(key, value string) *ListNetworksOpts {
	o.q.filter(key, value)
	return o
}

// Query encodes the builder.
func (o *ListNetworksOpts) Query() (url.Values, error) {
	if o == nil {
		return url.Values{}, nil
	}
	return o.q.encode()
}

// NetworkCreateOpts configures POST /networks/create.
type NetworkCreateOpts struct {
	b    body
	name string
}

// NewNetworkCreateOpts returns a builder for a network called name.
func NewNetworkCreateOpts(name string) *NetworkCreateOpts {
	o := &NetworkCreateOpts{}
	return o.Name(name)
}

// Name sets the network name. It is required.
func (o *NetworkCreateOpts) Name(name string) *NetworkCreateOpts {
	o.name = name
	o.b.set("Name", name)
	return o
}

// Driver sets the network driver (default "bridge").
func (o *NetworkCreateOpts) Driver(driver string) *NetworkCreateOpts {
	o.b.set("Driver", driver)
	return o
}

// Internal restricts external access to the network.
func (o *NetworkCreateOpts) Internal(v bool) *NetworkCreateOpts {
	o.b.set("Internal", v)
	return o
}

// Attachable allows standalone containers to attach to a swarm network.
func (o *NetworkCreateOpts) Attachable(v bool) *NetworkCreateOpts {
	o.b.set("Attachable", v)
	return o
}

// EnableIPv6 enables IPv6.
func (o *NetworkCreateOpts) EnableIPv6(v bool) *NetworkCreateOpts {
	o.b.set("EnableIPv6", v)
	return o
}

// Labels sets network labels.
func (o *NetworkCreateOpts) Labels(labels map[string]string) *NetworkCreateOpts {
	o.b.set("Labels", copyMap(labels))
	return o
}

// Options sets driver-specific options.
func (o *NetworkCreateOpts) Options(options map[string]string) *NetworkCreateOpts {
	o.b.set("Options", copyMap(options))
	return o
}

// Subnet adds an IPAM pool with the given subnet and optional gateway.
func (o *NetworkCreateOpts) Subnet(subnet, gateway string) *NetworkCreateOpts {
	ipam := o.b.nested("IPAM")
	pools, _ := (*ipam)["Config"].([]map[string]string)
	pool := map[string]string{"Subnet": subnet}
	if gateway != "" {
		pool["Gateway"] = gateway
	}
	ipam.set("Config", append(pools, pool))
	return o
}

// Body encodes the builder. The name is required.
func (o *NetworkCreateOpts) Body() ([]byte, error) {
	if o == nil {
		return nil, required("network name", "")
	}
	if err := required("network name", o.name); err != nil {
		return nil, err
	}
	return o.b.encode()
}

// NetworkConnectOpts configures POST /networks/{id}/connect.
type NetworkConnectOpts struct {
	b         body
	container string
}

// NewNetworkConnectOpts returns a builder connecting container.
func NewNetworkConnectOpts(container string) *NetworkConnectOpts {
	o := &NetworkConnectOpts{container: container}
	o.b.set("Container", container)
	return o
}

// Aliases sets DNS aliases of the container on the network.
func (o *NetworkConnectOpts) Aliases(aliases ...string) *NetworkConnectOpts {
	o.b.nested("EndpointConfig").setStrings("Aliases", aliases)
	return o
}

// IPv4Address requests a static address.
func (o *NetworkConnectOpts) IPv4Address(addr string) *NetworkConnectOpts {
	o.b.nested("EndpointConfig").nested("IPAMConfig").set("IPv4Address", addr)
	return o
}

// Body encodes the builder. The container is required.
func (o *NetworkConnectOpts) Body() ([]byte, error) {
	if o == nil {
		return nil, required("container", "")
	}
	if err := required("container", o.container); err != nil {
		return nil, err
	}
	return o.b.encode()
}

// NetworkDisconnectOpts configures POST /networks/{id}/disconnect.
type NetworkDisconnectOpts struct {
	b         body
	container string
}

// NewNetworkDisconnectOpts returns a builder disconnecting container.
func NewNetworkDisconnectOpts(container string) *NetworkDisconnectOpts {
	o := &NetworkDisconnectOpts{container: container}
	o.b.set("Container", container)
	return o
}

// Force disconnects even if the container is not running.
func (o *NetworkDisconnectOpts) Force(v bool) *NetworkDisconnectOpts {
	o.b.set("Force", v)
	return o
}

// Body encodes the builder. The container is required.
func (o *NetworkDisconnectOpts) Body() ([]byte, error) {
	if o == nil {
		return nil, required("container", "")
	}
	if err := required("container", o.container); err != nil {
		return nil, err
	}
	return o.b.encode()
}
