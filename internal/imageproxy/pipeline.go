// Package imageproxy serves upstream artwork through the image cache.
// Concurrent requests for one URL share a single fetch; distinct URLs can
// optionally be fetched one at a time with a delay between them.
package imageproxy

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"golang.org/x/sync/singleflight"

	"github.com/amaumene/gostremiocatalog/internal/cache"
	"github.com/amaumene/gostremiocatalog/internal/constants"
	apperrors "github.com/amaumene/gostremiocatalog/internal/errors"
	"github.com/amaumene/gostremiocatalog/internal/upstream"
	"github.com/amaumene/gostremiocatalog/pkg/logger"
)

// Fetcher downloads image bytes.
type Fetcher interface {
	FetchImageBytes(ctx context.Context, imageURL string) (*upstream.Image, error)
}

// Options configures a Pipeline. Zero values use the package defaults,
// with the queue disabled.
type Options struct {
	QueueEnabled bool
	QueueDelay   time.Duration
	QueueSize    int
	// FetchTimeout bounds a shared fetch, queue wait included.
	FetchTimeout time.Duration
	Logger       logger.Logger
}

type Pipeline struct {
	fetcher      Fetcher
	images       *cache.Wrapper
	logger       logger.Logger
	fetchTimeout time.Duration

	flights singleflight.Group

	queue     chan *job // nil when queuing is disabled
	delay     time.Duration
	worker    conc.WaitGroup
	stop      chan struct{}
	closeOnce sync.Once
}

type job struct {
	ctx         context.Context
	resourceKey string
	url         string
	done        chan jobResult
}

type jobResult struct {
	image *upstream.Image
	err   error
}

// New creates a pipeline and, when queuing is enabled, starts its worker.
func New(fetcher Fetcher, images *cache.Wrapper, opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if images == nil {
		images = cache.NewWrapper(nil, constants.KeyPrefixImage, constants.ImageTTL, opts.Logger)
	}
	if opts.QueueDelay < 0 {
		opts.QueueDelay = 0
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = constants.ImageQueueSize
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = constants.ImageFetchTimeout
	}

	p := &Pipeline{
		fetcher:      fetcher,
		images:       images,
		logger:       opts.Logger,
		fetchTimeout: opts.FetchTimeout,
		delay:        opts.QueueDelay,
		stop:         make(chan struct{}),
	}
	if opts.QueueEnabled {
		p.queue = make(chan *job, opts.QueueSize)
		p.worker.Go(p.run)
	}
	return p
}

// Fetch returns the image stored under resourceKey, downloading it from
// imageURL on a miss. A caller giving up does not cancel a shared download;
// it still lands in the cache for the next request.
func (p *Pipeline) Fetch(ctx context.Context, resourceKey, imageURL string) (*upstream.Image, error) {
	if resourceKey == "" || imageURL == "" {
		return nil, apperrors.NewInvalidInputError("resource key and image url are required")
	}

	if image, ok := cache.Peek[upstream.Image](ctx, p.images, resourceKey); ok {
		return &image, nil
	}

	ch := p.flights.DoChan(imageURL, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.fetchTimeout)
		defer cancel()
		if p.queue != nil {
			return p.enqueue(fctx, resourceKey, imageURL)
		}
		image, _, err := p.load(fctx, resourceKey, imageURL)
		return image, err
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			p.logger.Debugf("[ImageProxy] shared fetch for %s", resourceKey)
		}
		return res.Val.(*upstream.Image), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the queue worker. Pending and later queued fetches fail.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		close(p.stop)
	})
	p.worker.Wait()
}

// load checks the cache once more and fetches on a miss. fetched reports
// whether the network was used.
func (p *Pipeline) load(ctx context.Context, resourceKey, imageURL string) (image *upstream.Image, fetched bool, err error) {
	result := cache.Wrap(ctx, p.images, resourceKey, func(ctx context.Context) cache.Result[upstream.Image] {
		fetched = true
		img, err := p.fetcher.FetchImageBytes(ctx, imageURL)
		if err != nil {
			return cache.FromError(upstream.Image{}, err)
		}
		if len(img.Bytes) == 0 {
			return cache.NotFound[upstream.Image]()
		}
		return cache.Found(*img)
	})

	value, err := result.Unwrap()
	if err != nil {
		p.logger.Warnf("[ImageProxy] failed to fetch %s: %v", resourceKey, err)
		return nil, fetched, err
	}
	return &value, fetched, nil
}

func (p *Pipeline) enqueue(ctx context.Context, resourceKey, imageURL string) (*upstream.Image, error) {
	j := &job{ctx: ctx, resourceKey: resourceKey, url: imageURL, done: make(chan jobResult, 1)}

	select {
	case p.queue <- j:
	case <-p.stop:
		return nil, errClosed()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-j.done:
		return r.image, r.err
	case <-p.stop:
		return nil, errClosed()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pipeline) run() {
	for {
		select {
		case <-p.stop:
			return
		case j := <-p.queue:
			if j.ctx.Err() != nil {
				j.done <- jobResult{err: j.ctx.Err()}
				continue
			}

			image, fetched, err := p.load(j.ctx, j.resourceKey, j.url)
			j.done <- jobResult{image: image, err: err}
			if !fetched || p.delay == 0 {
				continue
			}

			timer := time.NewTimer(p.delay)
			select {
			case <-timer.C:
			case <-p.stop:
				timer.Stop()
				return
			}
		}
	}
}

func errClosed() error {
	return apperrors.NewUnavailableError("image queue is closed", nil)
}
