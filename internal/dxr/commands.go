package dxr

// GET command identifiers. The DXR web interface addresses each readable
// section by a numeric command appended to the base URL; the response body
// is a hex-digit stream (room names are the exception and come back as
// plain text).
const (
	GetCurrOpMode        = "30"
	GetSensors           = "31"
	GetWarnings          = "32"
	GetMaintenanceSect   = "33"
	GetDXRVersion        = "34"
	GetTemperatureUnit   = "35"
	GetOperationModesCfg = "36"

	// Room names occupy a contiguous command range, one per duct.
	GetRoomName1 = 43
)

// POST command identifiers, submitted as form field p_i with the value in
// p_v, both as 2-digit hex. The airflow/timeout commands are paired per
// operating mode.
const (
	PostCurrentMode = 0

	PostAutomaticModeAirflow   = 1
	PostFreeCoolingModeTimeout = 2
	PostFreeCoolingModeAirflow = 3
	PostBoostModeTimeout       = 4
	PostBoostModeAirflow       = 5
	PostAbsenceModeTimeout     = 6
	PostAbsenceModeAirflow     = 7
	PostStopModeTimeout        = 8
	PostStopModeAirflow        = 9

	PostFilterReset = 16
	PostFilterTest  = 17
)

// MaxDuct is the number of ventilation branch positions a DXR unit
// exposes. Sensor responses carry four parallel arrays of this stride.
const MaxDuct = 10

// timeoutCommands maps an operating mode to its timeout POST command.
// Automatic mode has no timeout concept and is deliberately absent.
var timeoutCommands = map[Mode]int{
	ModeFreeCooling: PostFreeCoolingModeTimeout,
	ModeBoost:       PostBoostModeTimeout,
	ModeAbsence:     PostAbsenceModeTimeout,
	ModeStop:        PostStopModeTimeout,
}

// airflowCommands maps an operating mode to its airflow POST command.
var airflowCommands = map[Mode]int{
	ModeAutomatic:   PostAutomaticModeAirflow,
	ModeFreeCooling: PostFreeCoolingModeAirflow,
	ModeBoost:       PostBoostModeAirflow,
	ModeAbsence:     PostAbsenceModeAirflow,
	ModeStop:        PostStopModeAirflow,
}

// TimeoutCommand returns the POST command for setting the timeout of the
// given mode.
func TimeoutCommand(mode Mode) (int, bool) {
	cmd, ok := timeoutCommands[mode]
	return cmd, ok
}

// AirflowCommand returns the POST command for setting the airflow of the
// given mode.
func AirflowCommand(mode Mode) (int, bool) {
	cmd, ok := airflowCommands[mode]
	return cmd, ok
}
