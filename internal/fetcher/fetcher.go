// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/tidwall/gjson"

	"github.com/staranto/randuser/internal/cacheutil"
	"github.com/staranto/randuser/internal/user"
	"github.com/staranto/randuser/internal/version"
)

const (
	// DefaultBaseURL is the users collection of the JSONPlaceholder API.
	DefaultBaseURL = "https://jsonplaceholder.typicode.com/users"
	// DefaultTimeout bounds a single request, including reading the body.
	DefaultTimeout = 10 * time.Second
)

// DiskCache is the local HTTP cache consulted before going to the network.
// *cacheutil.Store satisfies it.
type DiskCache interface {
	Read(clearKey string) (*cacheutil.Entry, bool)
	Write(clearKey string, data []byte) error
	Purge(hours int) error
}

// Fetcher retrieves single users from the users endpoint. It never returns a
// Go error; every failure becomes a Result with the matching Kind.
type Fetcher struct {
	baseURL    string
	client     *http.Client
	disk       DiskCache
	timeout    time.Duration
	cleanHours int

	purgeOnce sync.Once
}

// Option configures a Fetcher created by New.
type Option func(*Fetcher)

// WithClient replaces the default http.Client.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithDiskCache sets the local HTTP cache. Without one every fetch goes to
// the network.
func WithDiskCache(d DiskCache) Option {
	return func(f *Fetcher) {
		f.disk = d
	}
}

// WithTimeout sets the per-request timeout. Non-positive values keep the
// default.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithCleanHours makes the first fetch purge disk entries older than hours.
func WithCleanHours(hours int) Option {
	return func(f *Fetcher) {
		f.cleanHours = hours
	}
}

// New returns a Fetcher for baseURL. An empty baseURL means DefaultBaseURL.
func New(baseURL string, opts ...Option) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	f := &Fetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// BaseURL returns the users collection URL.
func (f *Fetcher) BaseURL() string {
	return f.baseURL
}

// URL returns the resource URL for id.
func (f *Fetcher) URL(id string) string {
	return f.baseURL + "/" + url.PathEscape(id)
}

// FetchUser is the nullable form of Fetch: the user on success, nil for
// every other outcome.
func (f *Fetcher) FetchUser(ctx context.Context, id string) *user.User {
	return f.Fetch(ctx, id).UserOrNil()
}

// Fetch issues GET {base}/{id}, consulting the disk cache first.
func (f *Fetcher) Fetch(ctx context.Context, id string) Result {
	res := f.fetch(ctx, id)
	logger := log.WithFields(log.Fields{"id": id, "kind": res.Kind})
	if res.OK() {
		logger.WithField("disk", res.FromDisk).Debug("fetched user")
	} else {
		logger.WithError(res.Err).Warn("failed to fetch user")
	}
	return res
}

func (f *Fetcher) fetch(ctx context.Context, id string) Result {
	n, err := user.ParseID(id)
	if err != nil {
		return Result{ID: id, Kind: KindInvalidID, Err: err}
	}
	// " 3" and "03" both name user 3, on the wire and on disk.
	id = IDString(n)

	f.purgeOnce.Do(func() {
		if f.disk == nil {
			return
		}
		if err := f.disk.Purge(f.cleanHours); err != nil {
			log.WithError(err).Warn("failed to purge cache")
		}
	})

	target := f.URL(id)

	if f.disk != nil {
		if entry, ok := f.disk.Read(target); ok {
			if u, err := Decode(entry.Data); err == nil {
				log.Debugf("cache hit: %s", entry.Path)
				return Result{ID: id, Kind: KindSuccess, User: u, Status: http.StatusOK, FromDisk: true}
			}
			log.Debugf("ignoring unreadable cache entry: %s", entry.Path)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Result{ID: id, Kind: KindTransportError, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{ID: id, Kind: KindTransportError, Err: fmt.Errorf("failed to execute request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Result{ID: id, Kind: KindNotFound, Status: resp.StatusCode, Err: fmt.Errorf("cannot find user with id %s", id)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{ID: id, Kind: KindBadStatus, Status: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var doc bytes.Buffer
	if _, err := doc.ReadFrom(resp.Body); err != nil {
		return Result{ID: id, Kind: KindTransportError, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	u, err := Decode(doc.Bytes())
	if err != nil {
		return Result{ID: id, Kind: KindMalformed, Status: resp.StatusCode, Err: err}
	}

	if f.disk != nil {
		if err := f.disk.Write(target, doc.Bytes()); err != nil {
			log.WithError(err).Warn("failed to write user to cache")
		}
	}

	return Result{ID: id, Kind: KindSuccess, User: u, Status: resp.StatusCode}
}

// ErrMalformed wraps every body that cannot be turned into a user.
var ErrMalformed = errors.New("malformed user document")

// Decode validates a response body and decodes it into a User. The body must
// be a JSON object with a numeric id.
func Decode(body []byte) (*user.User, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformed)
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: not an object", ErrMalformed)
	}
	if id := doc.Get("id"); id.Type != gjson.Number {
		return nil, fmt.Errorf("%w: missing id", ErrMalformed)
	}

	var u user.User
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return &u, nil
}

// IDString formats an integer identifier the way the cache keys it.
func IDString(id int) string {
	return strconv.Itoa(id)
}
