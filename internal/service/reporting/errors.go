package reporting

import "errors"

// Sentinel errors for the reporting service layer.
var (
	ErrConversionNotFound = errors.New("conversion not found")
	ErrSummaryNotFound    = errors.New("campaign summary not found")
	ErrCampaignNotFound   = errors.New("campaign not found")
	ErrNegativeSpend      = errors.New("spend must be non-negative")
)
