package scene

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"golang.org/x/sync/errgroup"
)

// TextureLoader fetches the globe's maps, retrying transient failures.
type TextureLoader struct {
	Client  *http.Client
	Retries int
	Delay   time.Duration
}

// NewTextureLoader returns a loader with two retries half a second apart.
func NewTextureLoader(timeout time.Duration) TextureLoader {
	return TextureLoader{
		Client:  &http.Client{Timeout: timeout},
		Retries: 2,
		Delay:   500 * time.Millisecond,
	}
}

// Load fetches one texture.
func (l TextureLoader) Load(ctx context.Context, url string) (*ImageTexture, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	policy := retrypolicy.NewBuilder[*ImageTexture]().
		WithMaxRetries(l.Retries).
		WithDelay(l.Delay).
		AbortOnErrors(context.Canceled, context.DeadlineExceeded).
		ReturnLastFailure().
		Build()

	return failsafe.Get(func() (*ImageTexture, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return LoadTexture(ctx, client, url)
	}, policy)
}

// LoadPair fetches the day map and the lights map in parallel. Either both
// come back or err is set and neither should be used.
func (l TextureLoader) LoadPair(ctx context.Context, dayURL, lightsURL string) (day, lights Texture, err error) {
	if dayURL == "" || lightsURL == "" {
		return nil, nil, errors.New("texture URL not configured")
	}

	var dayTex, lightsTex *ImageTexture
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dayTex, err = l.Load(gctx, dayURL)
		return err
	})
	g.Go(func() error {
		var err error
		lightsTex, err = l.Load(gctx, lightsURL)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return dayTex, lightsTex, nil
}
