package logic

import "errors"

var (
	ErrNoProfile     = errors.New("farmer profile not found")
	ErrMissingFields = errors.New("please fill in all required fields")
	ErrTooFewPoints  = errors.New("a farm boundary needs at least 3 points")
	ErrInvalidStage  = errors.New("unknown farm stage")
	ErrFarmNotFound  = errors.New("farm not found")
	ErrNoAnalysis    = errors.New("farm analysis is not available yet")
	ErrNoFarmData    = errors.New("farm has no weather or satellite data yet")
	ErrInvalidRange  = errors.New("start date must be before end date")
)
