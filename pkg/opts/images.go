package opts

import (
	"encoding/json"
	"net/url"
	"sort"
	"strings"
)

// ListImagesOpts configures GET /images/json.
type ListImagesOpts struct {
	q query
}

// NewListImagesOpts returns an empty builder.
func NewListImagesOpts() *ListImagesOpts {
	return &ListImagesOpts{}
}

// All includes intermediate layers.
func (o *ListImagesOpts) All(v bool) *ListImagesOpts {
	o.q.setBool("all", v)
	return o
}

// Digests includes repository digests.
func (o *ListImagesOpts) Digests(v bool) *ListImagesOpts {
	o.q.setBool("digests", v)
	return o
}

// Filter adds a daemon-side filter (e.g., "dangling", "true").
func (o *ListImagesOpts) Filter(key, value string) *ListImagesOpts {
	o.q.filter(key, value)
	return o
}

// Query encodes the builder.
func (o *ListImagesOpts) Query() (url.Values, error) {
	if o == nil {
		return url.Values{}, nil
	}
	return o.q.encode()
}

// PullImageOpts configures POST /images/create.
type PullImageOpts struct {
	q     query
	image string
	auth  *AuthOpts
}

// NewPullImageOpts returns a builder for image, which may carry a tag.
func NewPullImageOpts(image string) *PullImageOpts {
	o := &PullImageOpts{}
	return o.Image(image)
}

// Image sets the image to pull. A "name:tag" reference is split into
// fromImage and tag unless Tag is also set.
func (o *PullImageOpts) Image(image string) *PullImageOpts {
	o.image = image
	o.q.set("fromImage", image)
	return o
}

// Tag sets the tag or digest to pull.
func (o *PullImageOpts) Tag(tag string) *PullImageOpts {
	o.q.set("tag", tag)
	return o
}

// Platform selects the platform (e.g., "linux/arm64").
func (o *PullImageOpts) Platform(platform string) *PullImageOpts {
	o.q.set("platform", platform)
	return o
}

// Auth sets the registry credentials sent in X-Registry-Auth.
func (o *PullImageOpts) Auth(auth *AuthOpts) *PullImageOpts {
	o.auth = auth
	return o
}

// Query encodes the builder. The image name is required.
func (o *PullImageOpts) Query() (url.Values, error) {
	if o == nil {
		return nil, required("image", "")
	}
	if err := required("image", o.image); err != nil {
		return nil, err
	}
	values, err := o.q.encode()
	if err != nil {
		return nil, err
	}
	if values.Get("tag") == "" {
		if name, tag, ok := splitTag(o.image); ok {
			values.Set("fromImage", name)
			values.Set("tag", tag)
		}
	}
	return values, nil
}

// AuthHeader returns the X-Registry-Auth value, or "" without credentials.
func (o *PullImageOpts) AuthHeader() (string, error) {
	if o == nil || o.auth == nil {
		return "", nil
	}
	return o.auth.Header()
}

// splitTag splits "repo:tag", ignoring a registry port ("host:5000/repo").
func splitTag(ref string) (string, string, bool) {
	if strings.Contains(ref, "@") {
		return "", "", false
	}
	i := strings.LastIndex(ref, ":")
	if i < 0 || strings.Contains(ref[i+1:], "/") {
		return "", "", false
	}
	return ref[:i], ref[i+1:], true
}

// BuildImageOpts configures POST /build. The request body is a tar archive
// holding the build context.
type BuildImageOpts struct {
	q         query
	buildArgs map[string]string
	labels    map[string]string
}

// NewBuildImageOpts returns an empty builder.
func NewBuildImageOpts() *BuildImageOpts {
	return &BuildImageOpts{}
}

// Tag adds a "name:tag" reference to apply to the result.
func (o *BuildImageOpts) Tag(tag string) *BuildImageOpts {
	o.q.add("t", tag)
	return o
}

// Tags returns the configured build tags in sorted order.
func (o *BuildImageOpts) Tags() []string {
	if o == nil {
		return nil
	}
	tags := append([]string(nil), o.q.params["t"]...)
	sort.Strings(tags)
	return tags
}

// Dockerfile sets the Dockerfile path inside the context.
func (o *BuildImageOpts) Dockerfile(path string) *BuildImageOpts {
	o.q.set("dockerfile", path)
	return o
}

// NoCache disables the build cache.
func (o *BuildImageOpts) NoCache(v bool) *BuildImageOpts {
	o.q.setBool("nocache", v)
	return o
}

// Remove removes intermediate containers after a successful build.
func (o *BuildImageOpts) Remove(v bool) *BuildImageOpts {
	o.q.setBool("rm", v)
	return o
}

// ForceRemove always removes intermediate containers.
func (o *BuildImageOpts) ForceRemove(v bool) *BuildImageOpts {
	o.q.setBool("forcerm", v)
	return o
}

// Pull always pulls newer base images.
func (o *BuildImageOpts) Pull(v bool) *BuildImageOpts {
	o.q.setBool("pull", v)
	return o
}

// Target sets the build stage to stop at.
func (o *BuildImageOpts) Target(target string) *BuildImageOpts {
	o.q.set("target", target)
	return o
}

// Platform sets the target platform.
func (o *BuildImageOpts) Platform(platform string) *BuildImageOpts {
	o.q.set("platform", platform)
	return o
}

// BuildArg sets a build-time variable.
func (o *BuildImageOpts) BuildArg(key, value string) *BuildImageOpts {
	if o.buildArgs == nil {
		o.buildArgs = make(map[string]string)
	}
	o.buildArgs[key] = value
	return o
}

// Label sets a label on the resulting image.
func (o *BuildImageOpts) Label(key, value string) *BuildImageOpts {
	if o.labels == nil {
		o.labels = make(map[string]string)
	}
	o.labels[key] = value
	return o
}

// Query encodes the builder. Build args and labels travel as JSON documents
// in the query string.
func (o *BuildImageOpts) Query() (url.Values, error) {
	if o == nil {
		return url.Values{}, nil
	}
	values, err := o.q.encode()
	if err != nil {
		return nil, err
	}
	for key, m := range map[string]map[string]string{"buildargs": o.buildArgs, "labels": o.labels} {
		if len(m) == 0 {
			continue
		}
		if err := checkUTF8(key, m); err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(m)
		if err != nil {
			return nil, err
		}
		values.Set(key, string(encoded))
	}
	return values, nil
}

// RemoveImageOpts configures DELETE /images/{name}.
type RemoveImageOpts struct {
	q query
}

// NewRemoveImageOpts returns an empty builder.
func NewRemoveImageOpts() *RemoveImageOpts {
	return &RemoveImageOpts{}
}

// Force removes the image even if it is in use by stopped containers.
func (o *RemoveImageOpts) Force(v bool) *RemoveImageOpts {
	o.q.setBool("force", v)
	return o
}

// NoPrune keeps untagged parents.
func (o *RemoveImageOpts) NoPrune(v bool) *RemoveImageOpts {
	o.q.setBool("noprune", v)
	return o
}

// Query encodes the builder.
func (o *RemoveImageOpts) Query() (url.Values, error) {
	if o == nil {
		return url.Values{}, nil
	}
	return o.q.encode()
}

// SearchImagesOpts configures GET /images/search.
type SearchImagesOpts struct {
	q    query
	term string
}

// NewSearchImagesOpts returns a builder searching for term.
func NewSearchImagesOpts(term string) *SearchImagesOpts {
	o := &SearchImagesOpts{}
	return o.Term(term)
}

// Term sets the search term. It is required.
func (o *SearchImagesOpts) Term(term string) *SearchImagesOpts {
	o.term = term
	o.q.set("term", term)
	return o
}

// Limit caps the number of results.
func (o *SearchImagesOpts) Limit(n int) *SearchImagesOpts {
	o.q.setInt("limit", int64(n))
	return o
}

// Filter adds a search filter (e.g., "is-official", "true").
func (o *SearchImagesOpts) Filter(key, value string) *SearchImagesOpts {
	o.q.filter(key, value)
	return o
}

// Query encodes the builder.
func (o *SearchImagesOpts) Query() (url.Values, error) {
	if o == nil {
		return nil, required("search term", "")
	}
	if err := required("search term", o.term); err != nil {
		return nil, err
	}
	return o.q.encode()
}

// PruneOpts configures the prune endpoints.
type PruneOpts struct {
	q query
}

// NewPruneOpts returns an empty builder.
func NewPruneOpts() *PruneOpts {
	return &PruneOpts{}
}

// Filter adds a prune filter (e.g., "dangling", "false" or "until", "24h").
func (o *PruneOpts) Filter(key, value string) *PruneOpts {
	o.q.filter(key, value)
	return o
}

// Query encodes the builder.
func (o *PruneOpts) Query() (url.Values, error) {
	if o == nil {
		return url.Values{}, nil
	}
	return o.q.encode()
}
