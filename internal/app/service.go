package app

import (
	"context"

	"clipforge/internal/captions"
	"clipforge/internal/composer"
	"clipforge/internal/publish"
	"clipforge/internal/script"
	"clipforge/internal/speech"
	"clipforge/internal/storage"
	"clipforge/internal/store"
	"clipforge/internal/visuals"
	"clipforge/pkg/config"
)

// Synthesizer produces a voice artifact for a script, cached or fresh.
type Synthesizer interface {
	Synthesize(ctx context.Context, req speech.Request) (*speech.Result, error)
}

// AssetLocator resolves a search query into ranked visual candidates.
type AssetLocator interface {
	Search(ctx context.Context, query visuals.Query) []visuals.Candidate
}

// Renderer drives one composition run and persists its video record.
type Renderer interface {
	Compose(ctx context.Context, req composer.Request, ownerID, title string) (*store.VideoRecord, *composer.Output, error)
}

// Publisher fans a finished video out to its platform targets.
type Publisher interface {
	Publish(ctx context.Context, videoID, videoPath string, targets []publish.Target) (map[publish.Platform]*store.PublishAttempt, error)
}

type Service struct {
	cfg       *config.Config
	generator script.Generator
	speech    Synthesizer
	locator   AssetLocator
	captions  *captions.Synthesizer
	composer  Renderer
	publisher Publisher
	scheduler *publish.Scheduler
	storage   storage.Backend
	store     *store.Store
}

type ServiceOptions struct {
	Config    *config.Config
	Generator script.Generator
	Speech    Synthesizer
	Locator   AssetLocator
	Captions  *captions.Synthesizer
	Composer  Renderer
	Publisher Publisher
	Scheduler *publish.Scheduler
	Storage   storage.Backend
	Store     *store.Store
}

func NewService(opts ServiceOptions) *Service {
	return &Service{
		cfg:       opts.Config,
		generator: opts.Generator,
		speech:    opts.Speech,
		locator:   opts.Locator,
		captions:  opts.Captions,
		composer:  opts.Composer,
		publisher: opts.Publisher,
		scheduler: opts.Scheduler,
		storage:   opts.Storage,
		store:     opts.Store,
	}
}

func (s *Service) Config() *config.Config        { return s.cfg }
func (s *Service) Store() *store.Store           { return s.store }
func (s *Service) Scheduler() *publish.Scheduler { return s.scheduler }
func (s *Service) Publisher() Publisher          { return s.publisher }

func (s *Service) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
