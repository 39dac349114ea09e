package audio

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"codeberg.org/snonux/worldly/internal/errs"
	"codeberg.org/snonux/worldly/internal/logging"
)

// Artifact describes a freshly synthesized audio file.
type Artifact struct {
	Key       string
	Text      string
	File      string
	Provider  string
	Voice     string
	Size      int
	CreatedAt time.Time
}

// Recorder is notified about every artifact the cache synthesizes.
type Recorder interface {
	Record(ctx context.Context, a Artifact) error
}

type voicer interface {
	Voice() string
}

// Cache returns audio artifacts for texts, calling the provider only for
// texts that have no artifact in the store yet.
type Cache struct {
	provider Provider
	store    Store
	group    singleflight.Group
	recorder Recorder
	onLookup func(logicalKey string, hit bool)
	now      func() time.Time
	logger   *slog.Logger
}

// NewCache creates a cache synthesizing with provider into store.
func NewCache(provider Provider, store Store) *Cache {
	return &Cache{
		provider: provider,
		store:    store,
		now:      time.Now,
		logger:   logging.WithComponent("audio-cache"),
	}
}

// SetRecorder registers r to be told about new artifacts.
func (c *Cache) SetRecorder(r Recorder) {
	c.recorder = r
}

// OnLookup registers a callback receiving the outcome of every store lookup.
func (c *Cache) OnLookup(fn func(logicalKey string, hit bool)) {
	c.onLookup = fn
}

// Fetch returns the path of the artifact for text. logicalKey only labels
// logs and metrics. Concurrent calls for the same text share one synthesis.
func (c *Cache) Fetch(ctx context.Context, logicalKey, text string) (string, error) {
	if err := ValidateText(text); err != nil {
		return "", errs.New(errs.ErrInvalidInput, "audio "+logicalKey, err)
	}

	name := FileName(text, c.provider.Encoding())
	v, err, shared := c.group.Do(name, func() (interface{}, error) {
		return c.fetch(ctx, logicalKey, name, text)
	})
	if err != nil {
		return "", err
	}
	if shared {
		c.logger.Debug("shared synthesis", "key", logicalKey, "file", name)
	}
	return v.(string), nil
}

func (c *Cache) fetch(ctx context.Context, logicalKey, name, text string) (string, error) {
	hit, err := c.store.Has(ctx, name)
	if err != nil {
		return "", err
	}
	if c.onLookup != nil {
		c.onLookup(logicalKey, hit)
	}
	path := c.store.PathFor(name)
	if hit {
		c.logger.Debug("cache hit", "key", logicalKey, "file", name)
		return path, nil
	}

	data, err := c.provider.Synthesize(ctx, text)
	if err != nil {
		return "", err
	}
	if err := c.store.Put(ctx, name, data); err != nil {
		return "", err
	}
	c.logger.Info("synthesized audio", "key", logicalKey, "file", name,
		"provider", c.provider.Name(), "bytes", len(data))

	if c.recorder != nil {
		a := Artifact{
			Key:       Key(text),
			Text:      text,
			File:      name,
			Provider:  c.provider.Name(),
			Size:      len(data),
			CreatedAt: c.now().UTC(),
		}
		if v, ok := c.provider.(voicer); ok {
			a.Voice = v.Voice()
		}
		if err := c.recorder.Record(ctx, a); err != nil {
			c.logger.Warn("failed to record artifact", "file", name, "error", err)
		}
	}
	return path, nil
}
