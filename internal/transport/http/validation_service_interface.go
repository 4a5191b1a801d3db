package http

import (
	"context"

	"nexusprep/internal/learning"
	"nexusprep/internal/services"
	"nexusprep/pkg/contracts/domain"
)

// ValidationServiceInterface defines the service operations used by ValidationHandler
type ValidationServiceInterface interface {
	ValidateUploads(ctx context.Context, firmID string, uploads []services.Upload) (*domain.ValidationResult, error)
	ValidateSheets(ctx context.Context, req services.SheetsRequest) (*domain.ValidationResult, error)
	GetResult(id string) (*domain.ValidationResult, error)
	FirmTaxonomy(ctx context.Context, firmID string) ([]learning.Entry, error)
	FirmMapping(ctx context.Context, firmID, header string) (learning.Entry, error)
}
