package gui

import (
	"rawcull/internal/config"
	"rawcull/internal/rating"
)

// Interface defines the contract for GUI operations
type Interface interface {
	Run()
	ShowError(title string, err error)
	ShowInfo(message string)
}

// Factory creates GUI instances
type Factory struct {
	config  *config.Config
	ratings rating.Store
}

// NewFactory creates a new GUI factory
func NewFactory(cfg *config.Config, ratings rating.Store) *Factory {
	return &Factory{
		config:  cfg,
		ratings: ratings,
	}
}

// Create returns a new GUI instance
func (f *Factory) Create() (Interface, error) {
	app, err := NewApp(f.config, f.ratings)
	if err != nil {
		return nil, err
	}
	return app, nil
}
