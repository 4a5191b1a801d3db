package operations

import (
	"time"

	"nexusprep/pkg/contracts/domain"
	"nexusprep/pkg/contracts/events"
)

// Stage IDs
const (
	StageIDParsing            = string(domain.StageParsing)
	StageIDHeaderAnalysis     = string(domain.StageHeaderAnalysis)
	StageIDDataQuality        = string(domain.StageDataQuality)
	StageIDStateNormalization = string(domain.StageStateNormalization)
	StageIDRequiredFields     = string(domain.StageRequiredFields)
	StageIDFirmLearning       = string(domain.StageFirmLearning)
	StageIDFinalization       = string(domain.StageFinalization)
)

// Stage names
const (
	StageNameParsing            = "Parsing"
	StageNameHeaderAnalysis     = "Header Analysis"
	StageNameDataQuality        = "Data Quality"
	StageNameStateNormalization = "State Normalization"
	StageNameRequiredFields     = "Required Fields"
	StageNameFirmLearning       = "Firm Learning"
	StageNameFinalization       = "Finalization"
)

// Default timeouts
const (
	DefaultStageTimeout = 2 * time.Minute
	DefaultRunTimeout   = 15 * time.Minute
)

// WebSocket event types
const (
	EventTypeValidationStarted  = string(events.MessageTypeValidationStarted)
	EventTypeStageProgress      = string(events.MessageTypeStageProgress)
	EventTypeValidationComplete = string(events.MessageTypeValidationComplete)
	EventTypeValidationError    = string(events.MessageTypeValidationError)
)

// Run status values reported in events and metrics
const (
	RunStatusCompleted = "completed"
	RunStatusAborted   = "aborted"
)

// StageEvent is the metadata broadcast for every finished stage.
type StageEvent = events.StageEvent

// RunEvent is the metadata broadcast when a run starts or ends.
type RunEvent = events.RunEvent
