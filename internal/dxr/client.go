package dxr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"aereco-dxr-backend/internal/hexcodec"
)

var (
	// ErrUnavailable indicates a transport failure, a non-200 status or an
	// undecodable body on a read. It is expected during normal operation
	// and retried on the next poll tick.
	ErrUnavailable = errors.New("device unavailable")

	// ErrInvalidArgument indicates a caller-supplied value that cannot be
	// encoded for the device. It is raised before any network call.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrWriteFailed indicates the device rejected a POST with a non-200
	// status. Callers own any retry policy.
	ErrWriteFailed = errors.New("write failed")
)

const requestTimeout = 10 * time.Second

// Client talks to a single DXR unit over its plain-HTTP hex protocol.
// The underlying connection pool is lazily created and long-lived; call
// Close when the client is torn down.
type Client struct {
	baseURL    string
	httpClient *http.Client
	transport  *http.Transport
}

// NewClient creates a client for the unit at host:port.
func NewClient(host string, port int) *Client {
	transport := &http.Transport{}
	return &Client{
		baseURL:   fmt.Sprintf("http://%s:%d", host, port),
		transport: transport,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   requestTimeout,
		},
	}
}

// Close releases pooled connections.
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
}

// Read executes a GET command and returns the raw response body. Any
// transport error, non-200 status or non-text body yields ErrUnavailable.
func (c *Client) Read(ctx context.Context, command string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+command, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: GET %s: %v", ErrUnavailable, command, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: GET %s returned status %d", ErrUnavailable, command, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: GET %s: reading body: %v", ErrUnavailable, command, err)
	}

	// Units occasionally answer with a binary blob while rebooting.
	if !utf8.Valid(body) {
		return "", fmt.Errorf("%w: GET %s returned a non-text body", ErrUnavailable, command)
	}

	return strings.TrimSpace(string(body)), nil
}

// Write executes a POST command. Both the command and the value are sent
// as 2-digit hex form fields; out-of-range values fail fast with
// ErrInvalidArgument before anything is sent.
func (c *Client) Write(ctx context.Context, command int, value int) error {
	commandHex, err := hexcodec.EncodeByte(command)
	if err != nil {
		return fmt.Errorf("%w: command: %v", ErrInvalidArgument, err)
	}
	valueHex, err := hexcodec.EncodeByte(value)
	if err != nil {
		return fmt.Errorf("%w: value: %v", ErrInvalidArgument, err)
	}

	form := url.Values{}
	form.Set("p_i", commandHex)
	form.Set("p_v", valueHex)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/post", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: POST %d: %v", ErrWriteFailed, command, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: POST %d returned status %d", ErrWriteFailed, command, resp.StatusCode)
	}

	return nil
}

// CurrentMode reads and decodes the current operation mode section.
func (c *Client) CurrentMode(ctx context.Context) (*OperationModeState, error) {
	raw, err := c.Read(ctx, GetCurrOpMode)
	if err != nil {
		return nil, err
	}

	data := hexcodec.DecodeStream(raw)
	if len(data) < 5 {
		return nil, fmt.Errorf("%w: mode response too short (%d bytes)", ErrUnavailable, len(data))
	}

	return &OperationModeState{
		CurrentMode: Mode(data[0]),
		UserMode:    Mode(data[1]),
		Timeout:     int(data[2]),
		TimeoutUnit: TimeoutUnit(data[3]),
		Airflow:     int(data[4]),
		RawData:     raw,
	}, nil
}

// Sensors reads and decodes the duct sensors section. The response holds
// four parallel arrays of MaxDuct bytes each: raw values, sensor types,
// duct mapping and temperatures. Shorter responses yield an empty sensor
// set; unrecognized sensor type codes are excluded entirely.
func (c *Client) Sensors(ctx context.Context) (*SensorState, error) {
	raw, err := c.Read(ctx, GetSensors)
	if err != nil {
		return nil, err
	}

	data := hexcodec.DecodeStream(raw)
	state := &SensorState{RawData: raw}
	if len(data) < 4*MaxDuct {
		return state, nil
	}

	for i := 0; i < MaxDuct; i++ {
		sensorType := SensorType(data[i+MaxDuct])
		if sensorType != SensorTypeCO2 && sensorType != SensorTypePyro && sensorType != SensorTypeOther {
			continue
		}

		rawValue := int(data[i])
		state.Sensors = append(state.Sensors, SensorReading{
			ID:          i,
			Type:        sensorType,
			TypeName:    sensorType.String(),
			Value:       ScaleSensorValue(sensorType, rawValue),
			RawValue:    rawValue,
			Temperature: int(data[i+3*MaxDuct]),
			Duct:        int(data[i+2*MaxDuct]),
		})
	}

	return state, nil
}

// ScaleSensorValue converts a raw sensor byte to its client value: CO2
// counts in steps of 8 ppm, the pyro/humidity probe reports a threshold
// crossing at 162, everything else passes through.
func ScaleSensorValue(sensorType SensorType, raw int) int {
	switch sensorType {
	case SensorTypeCO2:
		if raw == 0 {
			return 0
		}
		return raw * 8
	case SensorTypePyro:
		if raw >= 162 {
			return 1
		}
		return 0
	}
	return raw
}

// Warnings reads the warnings section.
func (c *Client) Warnings(ctx context.Context) (*WarningState, error) {
	raw, err := c.Read(ctx, GetWarnings)
	if err != nil {
		return nil, err
	}

	state := &WarningState{
		RawData:     raw,
		HasWarnings: len(raw) > 0,
	}
	for i, b := range hexcodec.DecodeStream(raw) {
		if b != 0 {
			state.ActiveWarnings = append(state.ActiveWarnings, i)
		}
	}
	return state, nil
}

// Maintenance reads and decodes the maintenance section. The sixth byte
// (F7 filter clogging level) is optional and omitted when absent.
func (c *Client) Maintenance(ctx context.Context) (*MaintenanceState, error) {
	raw, err := c.Read(ctx, GetMaintenanceSect)
	if err != nil {
		return nil, err
	}

	data := hexcodec.DecodeStream(raw)
	if len(data) < 5 {
		return nil, fmt.Errorf("%w: maintenance response too short (%d bytes)", ErrUnavailable, len(data))
	}

	state := &MaintenanceState{
		FilterCloggingLevel: int(data[0]),
		FilterReset:         int(data[1]),
		FilterTest:          int(data[2]),
		BypassStatus:        int(data[3]),
		PreheaterLevel:      int(data[4]),
		RawData:             raw,
	}
	if len(data) > 5 {
		f7 := int(data[5])
		state.F7FilterCloggingLevel = &f7
	}
	return state, nil
}

var versionNames = map[byte]string{
	0: "DXR Basic",
	1: "DXR Premium",
	2: "DXR Comfort",
	3: "DXR Plus",
}

// Version reads the unit's hardware variant name.
func (c *Client) Version(ctx context.Context) (string, error) {
	raw, err := c.Read(ctx, GetDXRVersion)
	if err != nil {
		return "", err
	}

	data := hexcodec.DecodeStream(raw)
	if len(data) == 0 {
		return "Unknown", nil
	}
	if name, ok := versionNames[data[0]]; ok {
		return name, nil
	}
	return "Unknown", nil
}

// TemperatureUnit reads whether the unit reports in Celsius or Fahrenheit.
func (c *Client) TemperatureUnit(ctx context.Context) (string, error) {
	raw, err := c.Read(ctx, GetTemperatureUnit)
	if err != nil {
		return "", err
	}

	data := hexcodec.DecodeStream(raw)
	if len(data) > 0 && data[0] == 1 {
		return "°F", nil
	}
	return "°C", nil
}

// ModesConfig reads and decodes the per-mode timeout and airflow
// configuration. A zero byte means the value was never configured on the
// unit and is replaced with the factory default.
func (c *Client) ModesConfig(ctx context.Context) (*ModesConfig, error) {
	raw, err := c.Read(ctx, GetOperationModesCfg)
	if err != nil {
		return nil, err
	}

	data := hexcodec.DecodeStream(raw)
	if len(data) < 9 {
		return nil, fmt.Errorf("%w: modes config response too short (%d bytes)", ErrUnavailable, len(data))
	}

	return &ModesConfig{
		AutomaticAirflow:   orDefault(data[0], DefaultAutomaticAirflow),
		FreeCoolingTimeout: orDefault(data[1], DefaultFreeCoolingTimeout),
		FreeCoolingAirflow: orDefault(data[2], DefaultFreeCoolingAirflow),
		BoostTimeout:       orDefault(data[3], DefaultBoostTimeout),
		BoostAirflow:       orDefault(data[4], DefaultBoostAirflow),
		AbsenceTimeout:     orDefault(data[5], DefaultAbsenceTimeout),
		AbsenceAirflow:     orDefault(data[6], DefaultAbsenceAirflow),
		StopTimeout:        orDefault(data[7], DefaultStopTimeout),
		StopAirflow:        orDefault(data[8], DefaultStopAirflow),
	}, nil
}

func orDefault(raw byte, def int) int {
	if raw == 0 {
		return def
	}
	return int(raw)
}

// RoomNames reads the configured room name for every duct. A failed read
// for one duct does not fail the batch; that duct is simply missing from
// the result.
func (c *Client) RoomNames(ctx context.Context) map[int]string {
	names := make(map[int]string)
	for i := 0; i < MaxDuct; i++ {
		command := strconv.Itoa(GetRoomName1 + i)
		name, err := c.Read(ctx, command)
		if err != nil {
			log.Printf("Warning: could not read room name for duct %d: %v", i, err)
			continue
		}
		if name != "" {
			names[i] = name
		}
	}
	return names
}

// TestConnection checks reachability with a single mode read. Used when
// registering a device.
func (c *Client) TestConnection(ctx context.Context) bool {
	_, err := c.CurrentMode(ctx)
	return err == nil
}
