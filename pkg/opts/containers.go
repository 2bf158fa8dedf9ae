package opts

import (
	"net/url"
	"strconv"
	"time"
)

// ListContainersOpts configures GET /containers/json.
type ListContainersOpts struct {
	q query
}

// NewListContainersOpts returns an empty builder.
func NewListContainersOpts() *ListContainersOpts {
	return &ListContainersOpts{}
}

// All includes stopped containers.
func (o *ListContainersOpts) All(v bool) *ListContainersOpts {
	o.q.setBool("all", v)
	return o
}

// Limit returns only the n most recently created containers.
func (o *ListContainersOpts) Limit(n int) *ListContainersOpts {
	o.q.setInt("limit", int64(n))
	return o
}

// Size includes SizeRw and SizeRootFs in the result.
func (o *ListContainersOpts) Size(v bool) *ListContainersOpts {
	o.q.setBool("size", v)
	return o
}

// Filter adds a daemon-side filter (e.g., "status", "running" or "label", "app=web").
func (o *ListContainersOpts) Filter(key, value string) *ListContainersOpts {
	o.q.filter(key, value)
	return o
}

// Query encodes the builder.
func (o *ListContainersOpts) Query() (url.Values, error) {
	if o == nil {
		return url.Values{}, nil
	}
	return o.q.encode()
}

// ContainerCreateOpts configures POST /containers/create. Fields map to the
// container config document; host-level settings go into its HostConfig.
type ContainerCreateOpts struct {
	b body
}

// NewContainerCreateOpts returns an empty builder.
func NewContainerCreateOpts() *ContainerCreateOpts {
	return &ContainerCreateOpts{}
}

// Image sets the image to create the container from.
func (o *ContainerCreateOpts) Image(image string) *ContainerCreateOpts {
	o.b.set("Image", image)
	return o
}

// Cmd sets the command.
func (o *ContainerCreateOpts) Cmd(cmd []string) *ContainerCreateOpts {
	o.b.setStrings("Cmd", cmd)
	return o
}

// Entrypoint overrides the image entrypoint.
func (o *ContainerCreateOpts) Entrypoint(entrypoint []string) *ContainerCreateOpts {
	o.b.setStrings("Entrypoint", entrypoint)
	return o
}

// Env sets environment variables in KEY=value form.
func (o *ContainerCreateOpts) Env(env []string) *ContainerCreateOpts {
	o.b.setStrings("Env", env)
	return o
}

// WorkingDir sets the working directory of the command.
func (o *ContainerCreateOpts) WorkingDir(dir string) *ContainerCreateOpts {
	o.b.set("WorkingDir", dir)
	return o
}

// User sets the user the command runs as.
func (o *ContainerCreateOpts) User(user string) *ContainerCreateOpts {
	o.b.set("User", user)
	return o
}

// Hostname sets the container hostname.
func (o *ContainerCreateOpts) Hostname(hostname string) *ContainerCreateOpts {
	o.b.set("Hostname", hostname)
	return o
}

// Labels sets container labels.
func (o *ContainerCreateOpts) Labels(labels map[string]string) *ContainerCreateOpts {
	o.b.set("Labels", copyMap(labels))
	return o
}

// Tty allocates a pseudo-TTY. Output of such containers is not multiplexed.
func (o *ContainerCreateOpts) Tty(v bool) *ContainerCreateOpts {
	o.b.set("Tty", v)
	return o
}

// OpenStdin keeps stdin open for attach.
func (o *ContainerCreateOpts) OpenStdin(v bool) *ContainerCreateOpts {
	o.b.set("OpenStdin", v)
	return o
}

// AttachStdout attaches stdout.
func (o *ContainerCreateOpts) AttachStdout(v bool) *ContainerCreateOpts {
	o.b.set("AttachStdout", v)
	return o
}

// AttachStderr attaches stderr.
func (o *ContainerCreateOpts) AttachStderr(v bool) *ContainerCreateOpts {
	o.b.set("AttachStderr", v)
	return o
}

// StopSignal sets the signal used to stop the container.
func (o *ContainerCreateOpts) StopSignal(signal string) *ContainerCreateOpts {
	o.b.set("StopSignal", signal)
	return o
}

// ExposePorts declares ports in "port/proto" form (e.g., "80/tcp").
func (o *ContainerCreateOpts) ExposePorts(ports ...string) *ContainerCreateOpts {
	exposed := make(map[string]struct{}, len(ports))
	for _, p := range ports {
		exposed[p] = struct{}{}
	}
	o.b.set("ExposedPorts", exposed)
	return o
}

// Binds sets volume bindings in "host:container[:mode]" form.
func (o *ContainerCreateOpts) Binds(binds []string) *ContainerCreateOpts {
	o.b.nested("HostConfig").setStrings("Binds", binds)
	return o
}

// PublishPort binds a container port ("80/tcp") to a host port. hostIP may be empty.
func (o *ContainerCreateOpts) PublishPort(containerPort, hostIP, hostPort string) *ContainerCreateOpts {
	hc := o.b.nested("HostConfig")
	bindings, _ := (*hc)["PortBindings"].(map[string][]portBinding)
	if bindings == nil {
		bindings = make(map[string][]portBinding)
	}
	bindings[containerPort] = append(bindings[containerPort], portBinding{HostIP: hostIP, HostPort: hostPort})
	hc.set("PortBindings", bindings)
	return o
}

type portBinding struct {
	HostIP   string `json:"HostIp"`
	HostPort string `json:"HostPort"`
}

// Memory limits the container memory in bytes.
func (o *ContainerCreateOpts) Memory(bytes int64) *ContainerCreateOpts {
	o.b.nested("HostConfig").set("Memory", bytes)
	return o
}

// NetworkMode sets the network mode (e.g., "bridge", "host", "none").
func (o *ContainerCreateOpts) NetworkMode(mode string) *ContainerCreateOpts {
	o.b.nested("HostConfig").set("NetworkMode", mode)
	return o
}

// RestartPolicy sets the restart policy ("no", "always", "unless-stopped",
// "on-failure"). maxRetries only applies to "on-failure".
func (o *ContainerCreateOpts) RestartPolicy(name string, maxRetries int) *ContainerCreateOpts {
	policy := map[string]any{"Name": name}
	if maxRetries > 0 {
		policy["MaximumRetryCount"] = maxRetries
	}
	o.b.nested("HostConfig").set("RestartPolicy", policy)
	return o
}

// AutoRemove removes the container when it exits.
func (o *ContainerCreateOpts) AutoRemove(v bool) *ContainerCreateOpts {
	o.b.nested("HostConfig").set("AutoRemove", v)
	return o
}

// Privileged gives the container extended privileges.
func (o *ContainerCreateOpts) Privileged(v bool) *ContainerCreateOpts {
	o.b.nested("HostConfig").set("Privileged", v)
	return o
}

// Body encodes the builder as the create request document.
func (o *ContainerCreateOpts) Body() ([]byte, error) {
	if o == nil {
		return []byte("{}"), nil
	}
	return o.b.encode()
}

// RemoveContainerOpts configures DELETE /containers/{id}.
type RemoveContainerOpts struct {
	q query
}

// NewRemoveContainerOpts returns an empty builder.
func NewRemoveContainerOpts() *RemoveContainerOpts {
	return &RemoveContainerOpts{}
}

// Force kills a running container before removing it.
func (o *RemoveContainerOpts) Force(v bool) *RemoveContainerOpts {
	o.q.setBool("force", v)
	return o
}

// Volumes removes anonymous volumes of the container.
func (o *RemoveContainerOpts) Volumes(v bool) *RemoveContainerOpts {
	o.q.setBool("v", v)
	return o
}

// Link removes the specified link instead of the container.
func (o *RemoveContainerOpts) Link(v bool) *RemoveContainerOpts {
	o.q.setBool("link", v)
	return o
}

// Query encodes the builder.
func (o *RemoveContainerOpts) Query() (url.Values, error) {
	if o == nil {
		return url.Values{}, nil
	}
	return o.q.encode()
}

// StopOpts configures stop and restart.
type StopOpts struct {
	q query
}

// NewStopOpts returns an empty builder.
func NewStopOpts() *StopOpts {
	return &StopOpts{}
}

// Wait sets how long the daemon waits before killing the container.
// It is sent in whole seconds.
func (o *StopOpts) Wait(d time.Duration) *StopOpts {
	o.q.setInt("t", int64(d/time.Second))
	return o
}

// Signal sets the signal sent first (e.g., "SIGINT").
func (o *StopOpts) Signal(signal string) *StopOpts {
	o.q.set("signal", signal)
	return o
}

// Query encodes the builder.
func (o *StopOpts) Query() (url.Values, error) {
	if o == nil {
		return url.Values{}, nil
	}
	return o.q.encode()
}

// KillOpts configures POST /containers/{id}/kill.
type KillOpts struct {
	q query
}

// NewKillOpts returns an empty builder.
func NewKillOpts() *KillOpts {
	return &KillOpts{}
}

// Signal sets the signal to send (default SIGKILL on the daemon side).
func (o *KillOpts) Signal(signal string) *KillOpts {
	o.q.set("signal", signal)
	return o
}

// Query encodes the builder.
func (o *KillOpts) Query() (url.Values, error) {
	if o == nil {
		return url.Values{}, nil
	}
	return o.q.encode()
}

// LogsOpts configures GET /containers/{id}/logs.
type LogsOpts struct {
	q query
}

// NewLogsOpts returns an empty builder.
func NewLogsOpts() *LogsOpts {
	return &LogsOpts{}
}

// Follow keeps the stream open and sends new output as it is produced.
func (o *LogsOpts) Follow(v bool) *LogsOpts {
	o.q.setBool("follow", v)
	return o
}

// Stdout includes stdout.
func (o *LogsOpts) Stdout(v bool) *LogsOpts {
	o.q.setBool("stdout", v)
	return o
}

// Stderr includes stderr.
func (o *LogsOpts) Stderr(v bool) *LogsOpts {
	o.q.setBool("stderr", v)
	return o
}

// Since only returns output produced at or after t.
func (o *LogsOpts) Since(t time.Time) *LogsOpts {
	o.q.setTime("since", t)
	return o
}

// Until only returns output produced before t.
func (o *LogsOpts) Until(t time.Time) *LogsOpts {
	o.q.setTime("until", t)
	return o
}

// Timestamps prefixes every line with an RFC3339Nano timestamp.
func (o *LogsOpts) Timestamps(v bool) *LogsOpts {
	o.q.setBool("timestamps", v)
	return o
}

// HasTimestamps reports whether lines are prefixed with timestamps.
func (o *LogsOpts) HasTimestamps() bool {
	if o == nil {
		return false
	}
	ts := o.q.params["timestamps"]
	return len(ts) == 1 && ts[0] == "true"
}

// Tail returns only the last n lines.
func (o *LogsOpts) Tail(n int) *LogsOpts {
	o.q.set("tail", strconv.Itoa(n))
	return o
}

// Query encodes the builder.
func (o *LogsOpts) Query() (url.Values, error) {
	if o == nil {
		return url.Values{}, nil
	}
	return o.q.encode()
}

// AttachOpts configures POST /containers/{id}/attach.
type AttachOpts struct {
	q query
}

// NewAttachOpts returns an empty builder.
func NewAttachOpts() *AttachOpts {
	return &AttachOpts{}
}

// Stream attaches to live output.
func (o *AttachOpts) Stream(v bool) *AttachOpts {
	o.q.setBool("stream", v)
	return o
}

// Logs replays previous output first.
func (o *AttachOpts) Logs(v bool) *AttachOpts {
	o.q.setBool("logs", v)
	return o
}

// Stdin attaches stdin.
func (o *AttachOpts) Stdin(v bool) *AttachOpts {
	o.q.setBool("stdin", v)
	return o
}

// Stdout attaches stdout.
func (o *AttachOpts) Stdout(v bool) *AttachOpts {
	o.q.setBool("stdout", v)
	return o
}

// Stderr attaches stderr.
func (o *AttachOpts) Stderr(v bool) *AttachOpts {
	o.q.setBool("stderr", v)
	return o
}

// DetachKeys overrides the key sequence for detaching.
func (o *AttachOpts) DetachKeys(keys string) *AttachOpts {
	o.q.set("detachKeys", keys)
	return o
}

// Query encodes the builder.
func (o *AttachOpts) Query() (url.Values, error) {
	if o == nil {
		return url.Values{}, nil
	}
	return o.q.encode()
}

// ExecOpts configures exec creation (POST /containers/{id}/exec) and its
// start (POST /exec/{id}/start).
type ExecOpts struct {
	b      body
	detach bool
	tty    bool
}

// NewExecOpts returns an empty builder.
func NewExecOpts() *ExecOpts {
	return &ExecOpts{}
}

// Cmd sets the command to run. It is required.
func (o *ExecOpts) Cmd(cmd []string) *ExecOpts {
	o.b.setStrings("Cmd", cmd)
	return o
}

// Env sets extra environment variables in KEY=value form.
func (o *ExecOpts) Env(env []string) *ExecOpts {
	o.b.setStrings("Env", env)
	return o
}

// WorkingDir sets the working directory.
func (o *ExecOpts) WorkingDir(dir string) *ExecOpts {
	o.b.set("WorkingDir", dir)
	return o
}

// User sets the user the command runs as.
func (o *ExecOpts) User(user string) *ExecOpts {
	o.b.set("User", user)
	return o
}

// Privileged runs the command with extended privileges.
func (o *ExecOpts) Privileged(v bool) *ExecOpts {
	o.b.set("Privileged", v)
	return o
}

// Tty allocates a pseudo-TTY; the output is then a raw stream.
func (o *ExecOpts) Tty(v bool) *ExecOpts {
	o.b.set("Tty", v)
	o.tty = v
	return o
}

// AttachStdin attaches stdin.
func (o *ExecOpts) AttachStdin(v bool) *ExecOpts {
	o.b.set("AttachStdin", v)
	return o
}

// AttachStdout attaches stdout.
func (o *ExecOpts) AttachStdout(v bool) *ExecOpts {
	o.b.set("AttachStdout", v)
	return o
}

// AttachStderr attaches stderr.
func (o *ExecOpts) AttachStderr(v bool) *ExecOpts {
	o.b.set("AttachStderr", v)
	return o
}

// Detach starts the command in the background; no output stream is returned.
func (o *ExecOpts) Detach(v bool) *ExecOpts {
	o.detach = v
	return o
}

// Detached reports whether the command is started in the background.
func (o *ExecOpts) Detached() bool {
	return o != nil && o.detach
}

// TTY reports whether a pseudo-TTY is requested.
func (o *ExecOpts) TTY() bool {
	return o != nil && o.tty
}

// Body encodes the exec creation document. Cmd is required.
func (o *ExecOpts) Body() ([]byte, error) {
	if o == nil {
		return nil, required("exec Cmd", "")
	}
	cmd, _ := o.b["Cmd"].([]string)
	if len(cmd) == 0 {
		return nil, required("exec Cmd", "")
	}
	return o.b.encode()
}

// StartBody encodes the exec start document.
func (o *ExecOpts) StartBody() ([]byte, error) {
	start := body{}
	if o != nil {
		if o.detach {
			start.set("Detach", true)
		}
		if o.tty {
			start.set("Tty", true)
		}
	}
	return start.encode()
}

// UploadArchiveOpts configures PUT /containers/{id}/archive.
type UploadArchiveOpts struct {
	q    query
	path string
}

// NewUploadArchiveOpts returns a builder extracting into path.
func NewUploadArchiveOpts(path string) *UploadArchiveOpts {
	o := &UploadArchiveOpts{}
	return o.Path(path)
}

// Path sets the directory the archive is extracted into. It is required.
func (o *UploadArchiveOpts) Path(path string) *UploadArchiveOpts {
	o.path = path
	o.q.set("path", path)
	return o
}

// NoOverwriteDirNonDir fails instead of replacing a directory with a file or the reverse.
func (o *UploadArchiveOpts) NoOverwriteDirNonDir(v bool) *UploadArchiveOpts {
	o.q.setBool("noOverwriteDirNonDir", v)
	return o
}

// CopyUIDGID copies ownership from the archive.
func (o *UploadArchiveOpts) CopyUIDGID(v bool) *UploadArchiveOpts {
	o.q.setBool("copyUIDGID", v)
	return o
}

// Query encodes the builder.
func (o *UploadArchiveOpts) Query() (url.Values, error) {
	if o == nil {
		return nil, required("archive path", "")
	}
	if err := required("archive path", o.path); err != nil {
		return nil, err
	}
	return o.q.encode()
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
