package state

import (
	"math"

	"aereco-dxr-backend/internal/dxr"
)

// SpeedPercentage maps the active mode (and reported airflow) to a fan
// speed percentage. The mapping is total: every mode value yields a value
// in [0,100].
func SpeedPercentage(mode dxr.Mode, airflow int) int {
	switch mode {
	case dxr.ModeStop:
		return 0
	case dxr.ModeAbsence:
		return 20
	case dxr.ModeAutomatic:
		if airflow < 0 {
			return 0
		}
		if airflow > 100 {
			return 100
		}
		return airflow
	case dxr.ModeFreeCooling:
		return 60
	case dxr.ModeBoost:
		return 100
	}
	return 50
}

// ModeForPercentage maps a requested speed percentage to an operating
// mode. This is deliberately coarse and lossy: the device only knows
// modes, not percentages, so nearby percentages collapse onto the same
// mode. Policy, not device behavior.
func ModeForPercentage(percentage int) dxr.Mode {
	switch {
	case percentage <= 0:
		return dxr.ModeStop
	case percentage <= 25:
		return dxr.ModeAbsence
	case percentage <= 50:
		return dxr.ModeAutomatic
	case percentage <= 75:
		return dxr.ModeFreeCooling
	}
	return dxr.ModeBoost
}

// DisplayTimeout derives the user-facing timeout value and unit from the
// raw mode section. Automatic mode has no timeout concept; ok is false.
//
// Absence durations are displayed in days. The unit observed on real
// units flips between hours and days around the five-day mark, so a
// days unit passes through and an hours unit is divided by 24. For the
// remaining modes an hours unit means the raw value is minutes.
func DisplayTimeout(mode dxr.Mode, timeout int, unit dxr.TimeoutUnit) (value float64, displayUnit string, ok bool) {
	if mode == dxr.ModeAutomatic {
		return 0, "", false
	}

	if mode == dxr.ModeAbsence {
		switch unit {
		case dxr.UnitDays:
			return float64(timeout), "d", true
		case dxr.UnitHours:
			return round1(float64(timeout) / 24), "d", true
		}
		return float64(timeout), "d", true
	}

	if unit == dxr.UnitHours {
		return round1(float64(timeout) / 60), "h", true
	}
	return float64(timeout), unit.String(), true
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
