// Package app wires stores and services into a runnable application.
package app

import (
	analysissvc "github.com/matrizrfm/rfm-engine/internal/app/services/analysis"
	"github.com/matrizrfm/rfm-engine/internal/app/services/insights"
	"github.com/matrizrfm/rfm-engine/internal/app/storage"
	"github.com/matrizrfm/rfm-engine/internal/app/storage/memory"
	"github.com/matrizrfm/rfm-engine/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Analyses storage.AnalysisStore
	Segments storage.SegmentStore
}

// Application ties domain services together.
type Application struct {
	log *logger.Logger

	Analyses *analysissvc.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Analyses == nil {
		stores.Analyses = mem
	}
	if stores.Segments == nil {
		stores.Segments = mem
	}

	svc := analysissvc.New(stores.Analyses, stores.Segments, log)
	svc.AttachInsights(insights.Static{})

	return &Application{log: log, Analyses: svc}, nil
}

// Shutdown waits for in-flight background runs to finish.
func (a *Application) Shutdown() {
	a.Analyses.Wait()
}
