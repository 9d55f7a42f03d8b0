package world

import "islebuild.ai/internal/sim/tuning"

type WorldConfig struct {
	ID string

	Gen tuning.WorldGen

	DefaultRotation int
	MaxGestureCells int
}

func ConfigFromTuning(id string, t tuning.Tuning) WorldConfig {
	return WorldConfig{
		ID:              id,
		Gen:             t.World,
		DefaultRotation: t.DefaultRotation,
		MaxGestureCells: t.MaxGestureCells,
	}
}
