package docker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	apperrors "github.com/zorak1103/berth/pkg/errors"
	"github.com/zorak1103/berth/pkg/opts"
	"github.com/zorak1103/berth/pkg/transport"
)

// Images is the image collection of a Client.
type Images struct {
	client *Client
}

// List returns one handle per image, each carrying its list entry.
func (is *Images) List(ctx context.Context, o *opts.ListImagesOpts) ([]*Image, error) {
	q, err := o.Query()
	if err != nil {
		return nil, err
	}

	var summaries []ImageSummary
	if err := is.client.get(ctx, "/images/json", q, &summaries); err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	images := make([]*Image, 0, len(summaries))
	for i := range summaries {
		img := newImage(is.client, summaries[i].ID)
		img.summary = &summaries[i]
		images = append(images, img)
	}
	return images, nil
}

// Create starts pulling an image and returns the progress stream. The pull
// only completes once the stream has been read to the end; errors the
// daemon reports while pulling arrive in-band (see ProgressMessage.Err).
func (is *Images) Create(ctx context.Context, o *opts.PullImageOpts) (*JSONStream[ProgressMessage], error) {
	q, err := o.Query()
	if err != nil {
		return nil, err
	}
	auth, err := o.AuthHeader()
	if err != nil {
		return nil, err
	}

	req := transport.NewRequest(http.MethodPost, "/images/create", q)
	if auth != "" {
		req.SetHeader("X-Registry-Auth", auth)
	}
	resp, err := is.client.transport.Send(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to pull image %s: %w", q.Get("fromImage"), err)
	}
	return newJSONStream[ProgressMessage](resp.Body), nil
}

// Pull pulls an image, waits for the transfer to finish and returns a
// handle on it.
func (is *Images) Pull(ctx context.Context, o *opts.PullImageOpts) (*Image, error) {
	stream, err := is.Create(ctx, o)
	if err != nil {
		return nil, err
	}
	q, _ := o.Query()
	ref := q.Get("fromImage")
	if tag := q.Get("tag"); tag != "" {
		ref += ":" + tag
	}
	if err := drain(stream, is.client.log.WithField("image", ref)); err != nil {
		return nil, fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	return newImage(is.client, ref), nil
}

// Build builds an image from a tar archive of the build context and returns
// the build output stream.
func (is *Images) Build(ctx context.Context, buildContext io.Reader, o *opts.BuildImageOpts) (*JSONStream[ProgressMessage], error) {
	q, err := o.Query()
	if err != nil {
		return nil, err
	}
	req := transport.NewRequest(http.MethodPost, "/build", q)
	req.Body = buildContext
	req.SetHeader("Content-Type", "application/x-tar")

	resp, err := is.client.transport.Send(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to build image: %w", err)
	}
	return newJSONStream[ProgressMessage](resp.Body), nil
}

// Load imports images from a tar archive as produced by "docker save".
func (is *Images) Load(ctx context.Context, archive io.Reader, quiet bool) (*JSONStream[ProgressMessage], error) {
	var q url.Values
	if quiet {
		q = url.Values{"quiet": {"1"}}
	}
	req := transport.NewRequest(http.MethodPost, "/images/load", q)
	req.Body = archive
	req.SetHeader("Content-Type", "application/x-tar")

	resp, err := is.client.transport.Send(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}
	return newJSONStream[ProgressMessage](resp.Body), nil
}

// Search searches the registry for images.
func (is *Images) Search(ctx context.Context, o *opts.SearchImagesOpts) ([]ImageMatch, error) {
	q, err := o.Query()
	if err != nil {
		return nil, err
	}
	var matches []ImageMatch
	if err := is.client.get(ctx, "/images/search", q, &matches); err != nil {
		return nil, fmt.Errorf("failed to search images: %w", err)
	}
	return matches, nil
}

// Prune removes unused images.
func (is *Images) Prune(ctx context.Context, o *opts.PruneOpts) (*PruneReport, error) {
	q, err := o.Query()
	if err != nil {
		return nil, err
	}
	var report PruneReport
	if err := is.client.post(ctx, "/images/prune", q, nil, &report); err != nil {
		return nil, fmt.Errorf("failed to prune images: %w", err)
	}
	return &report, nil
}

// Get returns a handle for an image ID or reference without contacting the daemon.
func (is *Images) Get(name string) *Image {
	return newImage(is.client, name)
}

// Image is a handle on one image, addressed by ID or reference.
type Image struct {
	name   string
	client *Client

	mu      sync.RWMutex
	summary *ImageSummary
	details *ImageInspect
}

func newImage(c *Client, name string) *Image {
	return &Image{name: name, client: c}
}

// Name returns the ID or reference the handle was created with.
func (i *Image) Name() string {
	return i.name
}

// Summary returns the list entry the handle was built from, or nil.
func (i *Image) Summary() *ImageSummary {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.summary
}

// Details returns the last inspect result, or nil.
func (i *Image) Details() *ImageInspect {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.details
}

// The daemon routes image names containing slashes verbatim.
func (i *Image) path(action string) string {
	p := "/images/" + i.name
	if action != "" {
		p += "/" + action
	}
	return p
}

// Inspect fetches the image details and stores them as the new snapshot.
func (i *Image) Inspect(ctx context.Context) (*ImageInspect, error) {
	var details ImageInspect
	if err := i.client.get(ctx, i.path("json"), nil, &details); err != nil {
		return nil, fmt.Errorf("failed to inspect image %s: %w", i.name, err)
	}
	i.mu.Lock()
	i.details = &details
	i.mu.Unlock()
	return &details, nil
}

// History returns the layers of the image, newest first.
func (i *Image) History(ctx context.Context) ([]ImageHistory, error) {
	var history []ImageHistory
	if err := i.client.get(ctx, i.path("history"), nil, &history); err != nil {
		return nil, fmt.Errorf("failed to get history of image %s: %w", i.name, err)
	}
	return history, nil
}

// Tag adds the reference repo:tag to the image. tag may be empty for "latest".
func (i *Image) Tag(ctx context.Context, repo, tag string) error {
	if repo == "" {
		return &apperrors.UsageError{Field: "repository", Reason: "must not be empty"}
	}
	q := url.Values{"repo": {repo}}
	if tag != "" {
		q.Set("tag", tag)
	}
	if err := i.client.post(ctx, i.path("tag"), q, nil, nil); err != nil {
		return fmt.Errorf("failed to tag image %s as %s: %w", i.name, repo, err)
	}
	return nil
}

// Remove deletes the image and returns what was untagged and deleted.
func (i *Image) Remove(ctx context.Context, o *opts.RemoveImageOpts) ([]ImageDeleteResponse, error) {
	q, err := o.Query()
	if err != nil {
		return nil, err
	}
	var deleted []ImageDeleteResponse
	if err := i.client.call(ctx, transport.NewRequest(http.MethodDelete, i.path(""), q), &deleted); err != nil {
		return nil, fmt.Errorf("failed to remove image %s: %w", i.name, err)
	}
	return deleted, nil
}
