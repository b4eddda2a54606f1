package dxr

// Mode is a DXR operating regime. The wire encoding is a single byte.
type Mode int

const (
	ModeAutomatic   Mode = 0
	ModeFreeCooling Mode = 1
	ModeBoost       Mode = 2
	ModeAbsence     Mode = 3
	ModeStop        Mode = 4
)

var modeNames = map[Mode]string{
	ModeAutomatic:   "Automatic",
	ModeFreeCooling: "Free Cooling",
	ModeBoost:       "Boost",
	ModeAbsence:     "Absence",
	ModeStop:        "Stop",
}

// String returns the display name of the mode.
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "Unknown"
}

// ModeByName resolves a display name back to its mode value.
func ModeByName(name string) (Mode, bool) {
	for mode, n := range modeNames {
		if n == name {
			return mode, true
		}
	}
	return 0, false
}

// ModeByKey resolves a lowercase snake_case mode key as used in the
// control API (e.g. "free_cooling").
func ModeByKey(key string) (Mode, bool) {
	switch key {
	case "automatic":
		return ModeAutomatic, true
	case "free_cooling":
		return ModeFreeCooling, true
	case "boost":
		return ModeBoost, true
	case "absence":
		return ModeAbsence, true
	case "stop":
		return ModeStop, true
	}
	return 0, false
}

// Key returns the lowercase snake_case identifier for the mode.
func (m Mode) Key() string {
	switch m {
	case ModeAutomatic:
		return "automatic"
	case ModeFreeCooling:
		return "free_cooling"
	case ModeBoost:
		return "boost"
	case ModeAbsence:
		return "absence"
	case ModeStop:
		return "stop"
	}
	return "unknown"
}

// TimeoutUnit is the unit byte attached to the mode timeout field.
type TimeoutUnit int

const (
	UnitSeconds TimeoutUnit = 0
	UnitMinutes TimeoutUnit = 1
	UnitHours   TimeoutUnit = 2
	UnitDays    TimeoutUnit = 3
)

// String returns the short display suffix for the unit.
func (u TimeoutUnit) String() string {
	switch u {
	case UnitSeconds:
		return "s"
	case UnitHours:
		return "h"
	case UnitDays:
		return "d"
	}
	return "min"
}

// OperationModeState is the decoded current-mode section.
type OperationModeState struct {
	CurrentMode Mode        `json:"currentMode"`
	UserMode    Mode        `json:"userMode"`
	Timeout     int         `json:"timeout"`
	TimeoutUnit TimeoutUnit `json:"timeoutUnit"`
	Airflow     int         `json:"airflow"`
	RawData     string      `json:"rawData"`
}

// SensorType identifies the kind of probe installed in a duct.
type SensorType int

const (
	SensorTypeCO2   SensorType = 1
	SensorTypePyro  SensorType = 2
	SensorTypeOther SensorType = 3
)

var sensorTypeNames = map[SensorType]string{
	SensorTypeCO2:   "CO2",
	SensorTypePyro:  "Humidity",
	SensorTypeOther: "Other",
}

// String returns the display name of the sensor type.
func (t SensorType) String() string {
	if name, ok := sensorTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// SensorReading is one duct sensor from the sensors section. Value is the
// scaled reading: CO2 in ppm, pyro/humidity as a 0/1 threshold flag,
// other types raw.
type SensorReading struct {
	ID          int        `json:"id"`
	Type        SensorType `json:"type"`
	TypeName    string     `json:"typeName"`
	Value       int        `json:"value"`
	RawValue    int        `json:"rawValue"`
	Temperature int        `json:"temperature"`
	Duct        int        `json:"duct"`
}

// SensorState bundles all readings of one poll.
type SensorState struct {
	Sensors []SensorReading `json:"sensors"`
	RawData string          `json:"rawData"`
}

// WarningState is the decoded warnings section. ActiveWarnings lists the
// positions of non-zero warning bytes; HasWarnings mirrors the web UI,
// which treats any non-empty response as the warning section being
// present.
type WarningState struct {
	RawData        string `json:"rawData"`
	HasWarnings    bool   `json:"hasWarnings"`
	ActiveWarnings []int  `json:"activeWarnings"`
}

// MaintenanceState is the decoded maintenance section. The F7 filter
// clogging level is only reported by units with an F7 filter installed;
// the field is nil when the response carries no sixth byte.
type MaintenanceState struct {
	FilterCloggingLevel   int    `json:"filterCloggingLevel"`
	FilterReset           int    `json:"filterReset"`
	FilterTest            int    `json:"filterTest"`
	BypassStatus          int    `json:"bypassStatus"`
	PreheaterLevel        int    `json:"preheaterLevel"`
	F7FilterCloggingLevel *int   `json:"f7FilterCloggingLevel,omitempty"`
	RawData               string `json:"rawData"`
}

// ModesConfig holds the per-mode timeout and airflow defaults configured
// on the unit. A zero byte in the response means "not configured" and is
// replaced with the factory default.
type ModesConfig struct {
	AutomaticAirflow   int `json:"automaticAirflow"`
	FreeCoolingTimeout int `json:"freeCoolingTimeout"`
	FreeCoolingAirflow int `json:"freeCoolingAirflow"`
	BoostTimeout       int `json:"boostTimeout"`
	BoostAirflow       int `json:"boostAirflow"`
	AbsenceTimeout     int `json:"absenceTimeout"`
	AbsenceAirflow     int `json:"absenceAirflow"`
	StopTimeout        int `json:"stopTimeout"`
	StopAirflow        int `json:"stopAirflow"`
}

// Factory defaults substituted for unconfigured (zero) bytes in the
// operation-modes-config response.
const (
	DefaultAutomaticAirflow   = 60
	DefaultFreeCoolingTimeout = 30
	DefaultFreeCoolingAirflow = 80
	DefaultBoostTimeout       = 30
	DefaultBoostAirflow       = 120
	DefaultAbsenceTimeout     = 24
	DefaultAbsenceAirflow     = 30
	DefaultStopTimeout        = 60
	DefaultStopAirflow        = 0
)

// Timeout returns the configured default timeout for the given mode.
// Automatic mode has no timeout and reports 0.
func (c *ModesConfig) Timeout(mode Mode) int {
	switch mode {
	case ModeFreeCooling:
		return c.FreeCoolingTimeout
	case ModeBoost:
		return c.BoostTimeout
	case ModeAbsence:
		return c.AbsenceTimeout
	case ModeStop:
		return c.StopTimeout
	}
	return 0
}

// Airflow returns the configured default airflow for the given mode.
func (c *ModesConfig) Airflow(mode Mode) int {
	switch mode {
	case ModeAutomatic:
		return c.AutomaticAirflow
	case ModeFreeCooling:
		return c.FreeCoolingAirflow
	case ModeBoost:
		return c.BoostAirflow
	case ModeAbsence:
		return c.AbsenceAirflow
	case ModeStop:
		return c.StopAirflow
	}
	return 0
}
