package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/vvka-141/mnxnorm/internal/checksum"
	"github.com/vvka-141/mnxnorm/internal/files/filesystem"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const s3Scheme = "s3://"

// Input is one dump held in memory together with its fingerprint.
type Input struct {
	Kind        mnx.InputKind
	Location    string
	Content     []byte
	Fingerprint mnx.InputFingerprint
}

// Acquirer reads dumps from local files and S3.
type Acquirer struct {
	fs     filesystem.FileSystemProvider
	calc   checksum.Calculator
	logger mnx.Logger

	objects   ObjectGetter
	newClient func(ctx context.Context) (ObjectGetter, error)
	clientMu  sync.Mutex

	fetches singleflight.Group
}

// Option configures an Acquirer.
type Option func(*Acquirer)

// WithObjectGetter injects the S3 client, bypassing environment-based construction.
func WithObjectGetter(g ObjectGetter) Option {
	return func(a *Acquirer) { a.objects = g }
}

// NewAcquirer panics if fsProvider or logger is nil.
func NewAcquirer(fsProvider filesystem.FileSystemProvider, logger mnx.Logger, opts ...Option) *Acquirer {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	a := &Acquirer{
		fs:        fsProvider,
		calc:      checksum.New(),
		logger:    logger,
		newClient: newS3ClientFromEnv,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Acquire reads one location. Missing files and objects wrap mnx.ErrSourceNotFound.
func (a *Acquirer) Acquire(ctx context.Context, kind mnx.InputKind, location string) (*Input, error) {
	v, err, shared := a.fetches.Do(location, func() (interface{}, error) {
		return a.read(ctx, location)
	})
	if err != nil {
		return nil, fmt.Errorf("%s (%s): %w", kind, location, err)
	}
	if shared {
		a.logger.Verbose("Reused in-flight read of %s", location)
	}

	content := v.([]byte)
	a.logger.Verbose("Acquired %s from %s (%d bytes)", kind, location, len(content))
	return &Input{
		Kind:     kind,
		Location: location,
		Content:  content,
		Fingerprint: mnx.InputFingerprint{
			Kind:          kind,
			Location:      location,
			SHA256:        a.calc.CalculateRaw(content),
			ContentSHA256: a.calc.CalculateNormalized(content),
			Bytes:         int64(len(content)),
		},
	}, nil
}

// Fetch reads a location that is not a dump table, such as the namespace registry.
func (a *Acquirer) Fetch(ctx context.Context, location string) ([]byte, error) {
	v, err, _ := a.fetches.Do(location, func() (interface{}, error) {
		return a.read(ctx, location)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	return v.([]byte), nil
}

// AcquireAll reads every input concurrently and returns them in the
// canonical table order of mnx.InputKinds. Any failure cancels the rest.
func (a *Acquirer) AcquireAll(ctx context.Context, inputs map[mnx.InputKind]string) ([]*Input, error) {
	kinds := make([]mnx.InputKind, 0, len(inputs))
	for _, kind := range mnx.InputKinds {
		if _, ok := inputs[kind]; ok {
			kinds = append(kinds, kind)
		}
	}

	out := make([]*Input, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			in, err := a.Acquire(gctx, kind, inputs[kind])
			if err != nil {
				return err
			}
			out[i] = in
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Acquirer) read(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.HasPrefix(location, s3Scheme) {
		bucket, key, err := ParseS3URI(location)
		if err != nil {
			return nil, err
		}
		client, err := a.s3Client(ctx)
		if err != nil {
			return nil, err
		}
		return getObject(ctx, client, bucket, key)
	}

	content, err := a.fs.ReadFile(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", mnx.ErrSourceNotFound, err)
		}
		return nil, err
	}
	return content, nil
}

func (a *Acquirer) s3Client(ctx context.Context) (ObjectGetter, error) {
	a.clientMu.Lock()
	defer a.clientMu.Unlock()
	if a.objects != nil {
		return a.objects, nil
	}
	client, err := a.newClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	a.objects = client
	return client, nil
}

// ParseS3URI splits s3://bucket/key.
func ParseS3URI(location string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(location, s3Scheme)
	if !ok {
		return "", "", fmt.Errorf("not an s3 URI: %q: %w", location, mnx.ErrInvalidConfig)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 URI %q needs both bucket and key: %w", location, mnx.ErrInvalidConfig)
	}
	return bucket, key, nil
}

// Discover maps the <kind>.tsv files of a MetaNetX release directory to
// input kinds. Local directories only. Files with other names are ignored.
func Discover(fsProvider filesystem.FileSystemProvider, dir string) (map[mnx.InputKind]string, error) {
	if strings.HasPrefix(dir, s3Scheme) {
		return nil, fmt.Errorf("directory discovery does not support %q: list the inputs explicitly: %w", dir, mnx.ErrInvalidConfig)
	}
	entries, err := fsProvider.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w: %w", dir, mnx.ErrSourceNotFound, err)
		}
		return nil, err
	}

	found := make(map[mnx.InputKind]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		base := strings.TrimSuffix(name, path.Ext(name))
		kind, err := mnx.ParseInputKind(base)
		if err != nil {
			continue
		}
		found[kind] = filepath.Join(dir, name)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("no MetaNetX tables (%s) in %s: %w", kindList(), dir, mnx.ErrSourceNotFound)
	}
	return found, nil
}

func kindList() string {
	names := make([]string, len(mnx.InputKinds))
	for i, k := range mnx.InputKinds {
		names[i] = string(k) + ".tsv"
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
