package app

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/andresuchdata/promo-dispatch/internal/config"
	"github.com/andresuchdata/promo-dispatch/internal/service"
)

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{IntermediateDir: "unused"},
		Analysis: config.AnalysisConfig{LeadTime: 2, Strategy: "ceil_moq", CentralDepot: "D001"},
	}
}

func TestNewWithoutSources(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), testConfig(), Sources{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	if a.Analysis == nil || a.Storage != nil || a.Drive != nil || a.reports == nil {
		t.Fatalf("app = %+v", a)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}
}

func TestNewRequiresConfiguredSources(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), testConfig(), Sources{Storage: true}, zerolog.Nop()); !errors.Is(err, service.ErrSourceUnavailable) {
		t.Fatalf("storage error = %v", err)
	}
	if _, err := New(context.Background(), testConfig(), Sources{Drive: true}, zerolog.Nop()); err == nil {
		t.Fatal("expected error without drive credentials")
	}
}
