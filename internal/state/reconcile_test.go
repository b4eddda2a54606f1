package state

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"aereco-dxr-backend/internal/dxr"
)

func TestSpeedPercentage(t *testing.T) {
	testCases := []struct {
		name     string
		mode     dxr.Mode
		airflow  int
		expected int
	}{
		{name: "stop", mode: dxr.ModeStop, expected: 0},
		{name: "absence", mode: dxr.ModeAbsence, airflow: 80, expected: 20},
		{name: "automatic uses airflow", mode: dxr.ModeAutomatic, airflow: 45, expected: 45},
		{name: "automatic clamps high", mode: dxr.ModeAutomatic, airflow: 140, expected: 100},
		{name: "automatic clamps low", mode: dxr.ModeAutomatic, airflow: -5, expected: 0},
		{name: "free cooling", mode: dxr.ModeFreeCooling, airflow: 1, expected: 60},
		{name: "boost", mode: dxr.ModeBoost, expected: 100},
		{name: "unknown mode", mode: dxr.Mode(99), expected: 50},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SpeedPercentage(tc.mode, tc.airflow))
		})
	}
}

// The mapping must be total: any mode byte, any airflow, always a value
// in range.
func TestSpeedPercentage_Total(t *testing.T) {
	for mode := 0; mode < 256; mode++ {
		for _, airflow := range []int{-10, 0, 50, 100, 255} {
			pct := SpeedPercentage(dxr.Mode(mode), airflow)
			assert.GreaterOrEqual(t, pct, 0)
			assert.LessOrEqual(t, pct, 100)
		}
	}
}

func TestModeForPercentage(t *testing.T) {
	assert.Equal(t, dxr.ModeStop, ModeForPercentage(0))
	assert.Equal(t, dxr.ModeAbsence, ModeForPercentage(1))
	assert.Equal(t, dxr.ModeAbsence, ModeForPercentage(25))
	assert.Equal(t, dxr.ModeAutomatic, ModeForPercentage(26))
	assert.Equal(t, dxr.ModeAutomatic, ModeForPercentage(50))
	assert.Equal(t, dxr.ModeFreeCooling, ModeForPercentage(51))
	assert.Equal(t, dxr.ModeFreeCooling, ModeForPercentage(75))
	assert.Equal(t, dxr.ModeBoost, ModeForPercentage(76))
	assert.Equal(t, dxr.ModeBoost, ModeForPercentage(100))
}

func TestDisplayTimeout(t *testing.T) {
	testCases := []struct {
		name     string
		mode     dxr.Mode
		timeout  int
		unit     dxr.TimeoutUnit
		value    float64
		dispUnit string
		ok       bool
	}{
		{name: "automatic has no timeout", mode: dxr.ModeAutomatic, timeout: 30, unit: dxr.UnitMinutes, ok: false},
		{name: "absence in days passes through", mode: dxr.ModeAbsence, timeout: 6, unit: dxr.UnitDays, value: 6, dispUnit: "d", ok: true},
		{name: "absence in hours converts to days", mode: dxr.ModeAbsence, timeout: 95, unit: dxr.UnitHours, value: 4, dispUnit: "d", ok: true},
		{name: "absence in hours rounds to one decimal", mode: dxr.ModeAbsence, timeout: 100, unit: dxr.UnitHours, value: 4.2, dispUnit: "d", ok: true},
		{name: "boost in hours means raw minutes", mode: dxr.ModeBoost, timeout: 90, unit: dxr.UnitHours, value: 1.5, dispUnit: "h", ok: true},
		{name: "boost in minutes passes through", mode: dxr.ModeBoost, timeout: 30, unit: dxr.UnitMinutes, value: 30, dispUnit: "min", ok: true},
		{name: "stop in seconds passes through", mode: dxr.ModeStop, timeout: 45, unit: dxr.UnitSeconds, value: 45, dispUnit: "s", ok: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			value, unit, ok := DisplayTimeout(tc.mode, tc.timeout, tc.unit)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.InDelta(t, tc.value, value, 0.001)
				assert.Equal(t, tc.dispUnit, unit)
			}
		})
	}
}
