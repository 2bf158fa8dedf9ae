package docker

import (
	"encoding/json"
	"time"
)

// ContainerSummary is one element of GET /containers/json. Members the
// client does not interpret are kept raw so the daemon document can be
// reproduced from it.
type ContainerSummary struct {
	ID              string            `json:"Id" validate:"required"`
	Names           []string          `json:"Names"`
	Image           string            `json:"Image"`
	ImageID         string            `json:"ImageID"`
	Command         string            `json:"Command"`
	Created         int64             `json:"Created"`
	State           string            `json:"State"`
	Status          string            `json:"Status"`
	Ports           []Port            `json:"Ports"`
	Labels          map[string]string `json:"Labels"`
	SizeRw          *int64            `json:"SizeRw,omitempty"`
	SizeRootFs      *int64            `json:"SizeRootFs,omitempty"`
	HostConfig      json.RawMessage   `json:"HostConfig,omitempty"`
	NetworkSettings json.RawMessage   `json:"NetworkSettings,omitempty"`
	Mounts          json.RawMessage   `json:"Mounts,omitempty"`

	// Extra holds members without a field above.
	Extra map[string]json.RawMessage `json:"-"`

	reported map[string]json.RawMessage
}

// Port is a published or exposed container port.
type Port struct {
	IP          string `json:"IP,omitempty"`
	PrivatePort uint16 `json:"PrivatePort"`
	PublicPort  uint16 `json:"PublicPort,omitempty"`
	Type        string `json:"Type"`

	reported map[string]json.RawMessage
}

// ContainerState is the State member of a container inspect document.
type ContainerState struct {
	Status     string    `json:"Status"`
	Running    bool      `json:"Running"`
	Paused     bool      `json:"Paused"`
	Restarting bool      `json:"Restarting"`
	OOMKilled  bool      `json:"OOMKilled"`
	Dead       bool      `json:"Dead"`
	Pid        int       `json:"Pid"`
	ExitCode   int       `json:"ExitCode"`
	Error      string    `json:"Error"`
	StartedAt  time.Time `json:"StartedAt"`
	FinishedAt time.Time `json:"FinishedAt"`
}

// ContainerConfig is the Config member of a container inspect document.
type ContainerConfig struct {
	Hostname     string              `json:"Hostname"`
	User         string              `json:"User"`
	Env          []string            `json:"Env"`
	Cmd          []string            `json:"Cmd"`
	Entrypoint   []string            `json:"Entrypoint"`
	Image        string              `json:"Image"`
	WorkingDir   string              `json:"WorkingDir"`
	Labels       map[string]string   `json:"Labels"`
	Tty          bool                `json:"Tty"`
	OpenStdin    bool                `json:"OpenStdin"`
	ExposedPorts map[string]struct{} `json:"ExposedPorts,omitempty"`
}

// ContainerInspect is the answer of GET /containers/{id}/json.
type ContainerInspect struct {
	ID              string           `json:"Id" validate:"required"`
	Name            string           `json:"Name"`
	Created         time.Time        `json:"Created"`
	Path            string           `json:"Path"`
	Args            []string         `json:"Args"`
	State           *ContainerState  `json:"State"`
	Image           string           `json:"Image"`
	RestartCount    int              `json:"RestartCount"`
	Driver          string           `json:"Driver"`
	Platform        string           `json:"Platform"`
	Config          *ContainerConfig `json:"Config"`
	HostConfig      json.RawMessage  `json:"HostConfig,omitempty"`
	NetworkSettings json.RawMessage  `json:"NetworkSettings,omitempty"`
	Mounts          json.RawMessage  `json:"Mounts,omitempty"`
}

// CreateResponse is returned by the container and exec create endpoints.
type CreateResponse struct {
	ID       string   `json:"Id" validate:"required"`
	Warnings []string `json:"Warnings"`
}

// WaitResponse is returned by POST /containers/{id}/wait.
type WaitResponse struct {
	StatusCode int64 `json:"StatusCode"`
	Error      *struct {
		Message string `json:"Message"`
	} `json:"Error,omitempty"`
}

// TopResponse is returned by GET /containers/{id}/top.
type TopResponse struct {
	Titles    []string   `json:"Titles" validate:"required"`
	Processes [][]string `json:"Processes"`
}

// Process is one row of a top listing keyed by column title (e.g., "PID", "CMD").
type Process map[string]string

// FileInfo describes a path inside a container, as reported by the
// X-Docker-Container-Path-Stat header.
type FileInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Mode       uint32    `json:"mode"`
	Mtime      time.Time `json:"mtime"`
	LinkTarget string    `json:"linkTarget"`
}

// ExecInspect is the answer of GET /exec/{id}/json.
type ExecInspect struct {
	ID          string `json:"ID" validate:"required"`
	ContainerID string `json:"ContainerID"`
	Running     bool   `json:"Running"`
	ExitCode    int    `json:"ExitCode"`
	Pid         int    `json:"Pid"`
}

// ImageSummary is one element of GET /images/json.
type ImageSummary struct {
	ID          string            `json:"Id" validate:"required"`
	ParentID    string            `json:"ParentId"`
	RepoTags    []string          `json:"RepoTags"`
	RepoDigests []string          `json:"RepoDigests"`
	Created     int64             `json:"Created"`
	Size        int64             `json:"Size"`
	SharedSize  int64             `json:"SharedSize"`
	Containers  int64             `json:"Containers"`
	Labels      map[string]string `json:"Labels"`

	// Extra holds members without a field above.
	Extra map[string]json.RawMessage `json:"-"`

	reported map[string]json.RawMessage
}

// ImageInspect is the answer of GET /images/{name}/json.
type ImageInspect struct {
	ID            string          `json:"Id" validate:"required"`
	RepoTags      []string        `json:"RepoTags"`
	RepoDigests   []string        `json:"RepoDigests"`
	Parent        string          `json:"Parent"`
	Comment       string          `json:"Comment"`
	Created       string          `json:"Created"`
	Author        string          `json:"Author"`
	Architecture  string          `json:"Architecture"`
	Os            string          `json:"Os"`
	Size          int64           `json:"Size"`
	Config        json.RawMessage `json:"Config,omitempty"`
	RootFS        json.RawMessage `json:"RootFS,omitempty"`
	GraphDriver   json.RawMessage `json:"GraphDriver,omitempty"`
	ContainerConf json.RawMessage `json:"ContainerConfig,omitempty"`
}

// ImageHistory is one layer of GET /images/{name}/history.
type ImageHistory struct {
	ID        string   `json:"Id"`
	Created   int64    `json:"Created"`
	CreatedBy string   `json:"CreatedBy"`
	Tags      []string `json:"Tags"`
	Size      int64    `json:"Size"`
	Comment   string   `json:"Comment"`
}

// ImageMatch is one result of GET /images/search.
type ImageMatch struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	StarCount   int    `json:"star_count"`
	IsOfficial  bool   `json:"is_official"`
	IsAutomated bool   `json:"is_automated"`
}

// ImageDeleteResponse is one element of DELETE /images/{name}.
type ImageDeleteResponse struct {
	Untagged string `json:"Untagged,omitempty"`
	Deleted  string `json:"Deleted,omitempty"`
}

// PruneReport is returned by the prune endpoints.
type PruneReport struct {
	ImagesDeleted     []ImageDeleteResponse `json:"ImagesDeleted"`
	ContainersDeleted []string              `json:"ContainersDeleted"`
	SpaceReclaimed    uint64                `json:"SpaceReclaimed"`
}

// ProgressMessage is one line of the pull, build and load progress streams.
type ProgressMessage struct {
	ID             string          `json:"id,omitempty"`
	Status         string          `json:"status,omitempty"`
	Progress       string          `json:"progress,omitempty"`
	ProgressDetail *ProgressDetail `json:"progressDetail,omitempty"`
	Stream         string          `json:"stream,omitempty"`
	Aux            json.RawMessage `json:"aux,omitempty"`
	Error          string          `json:"error,omitempty"`
	ErrorDetail    *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errorDetail,omitempty"`
}

// ProgressDetail holds byte counts for a layer transfer.
type ProgressDetail struct {
	Current int64 `json:"current"`
	Total   int64 `json:"total"`
}

// NetworkResource is the answer of GET /networks/{id} and one element of GET /networks.
type NetworkResource struct {
	Name       string                      `json:"Name"`
	ID         string                      `json:"Id" validate:"required"`
	Created    time.Time                   `json:"Created"`
	Scope      string                      `json:"Scope"`
	Driver     string                      `json:"Driver"`
	EnableIPv6 bool                        `json:"EnableIPv6"`
	Internal   bool                        `json:"Internal"`
	Attachable bool                        `json:"Attachable"`
	IPAM       json.RawMessage             `json:"IPAM,omitempty"`
	Containers map[string]NetworkContainer `json:"Containers,omitempty"`
	Options    map[string]string           `json:"Options"`
	Labels     map[string]string           `json:"Labels"`

	// Extra holds members without a field above.
	Extra map[string]json.RawMessage `json:"-"`

	reported map[string]json.RawMessage
}

// NetworkContainer is a container endpoint on a network.
type NetworkContainer struct {
	Name        string `json:"Name"`
	EndpointID  string `json:"EndpointID"`
	MacAddress  string `json:"MacAddress"`
	IPv4Address string `json:"IPv4Address"`
	IPv6Address string `json:"IPv6Address"`
}

// NetworkCreateResponse is returned by POST /networks/create.
type NetworkCreateResponse struct {
	ID      string `json:"Id" validate:"required"`
	Warning string `json:"Warning"`
}

// Event is one message of GET /events.
type Event struct {
	Type     string `json:"Type"`
	Action   string `json:"Action" validate:"required"`
	Actor    Actor  `json:"Actor"`
	Scope    string `json:"scope"`
	Time     int64  `json:"time"`
	TimeNano int64  `json:"timeNano"`
}

// Actor identifies the object an event is about.
type Actor struct {
	ID         string            `json:"ID"`
	Attributes map[string]string `json:"Attributes"`
}

// When returns the event time.
func (e Event) When() time.Time {
	if e.TimeNano != 0 {
		return time.Unix(0, e.TimeNano)
	}
	return time.Unix(e.Time, 0)
}

// VersionInfo is the answer of GET /version.
type VersionInfo struct {
	Version       string `json:"Version" validate:"required"`
	APIVersion    string `json:"ApiVersion"`
	MinAPIVersion string `json:"MinAPIVersion"`
	GitCommit     string `json:"GitCommit"`
	GoVersion     string `json:"GoVersion"`
	Os            string `json:"Os"`
	Arch          string `json:"Arch"`
	KernelVersion string `json:"KernelVersion"`
	BuildTime     string `json:"BuildTime"`
}

// AuthResponse is returned by POST /auth.
type AuthResponse struct {
	Status        string `json:"Status"`
	IdentityToken string `json:"IdentityToken"`
}
