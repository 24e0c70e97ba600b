package services

import (
	"context"

	"ai-sales-report/pkg/models"
)

// TextGenerator defines the external text-generation facility ("given text, return text").
// The report pipeline depends on this interface, not on a concrete backend.
//
//go:generate mockgen -destination=mocks/mock_services.go -package=mocks -source=interface.go
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, params models.GenerationParams) (string, error)
}

// Dispatcher defines the transport that delivers a composed report.
type Dispatcher interface {
	Send(ctx context.Context, msg models.ReportMessage) error
}
