package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"aereco-dxr-backend/config"
	"aereco-dxr-backend/internal/api"
	"aereco-dxr-backend/internal/model"
	"aereco-dxr-backend/internal/poller"
	"aereco-dxr-backend/internal/store"
)

// fakeUnit simulates the embedded web interface of a DXR ventilation
// unit: GET /{command} answers with a hex-digit stream, POST /post
// applies mode changes.
type fakeUnit struct {
	mu     sync.Mutex
	mode   byte
	writes []string
}

func (u *fakeUnit) sensorStream() string {
	data := make([]byte, 40)
	data[0] = 100 // CO2 raw on duct 0
	data[10] = 1  // sensor type CO2
	data[30] = 21 // temperature
	var b bytes.Buffer
	for _, v := range data {
		fmt.Fprintf(&b, "%02x", v)
	}
	return b.String()
}

func (u *fakeUnit) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/post" {
			r.ParseForm()
			u.mu.Lock()
			u.writes = append(u.writes, r.PostForm.Get("p_i")+"="+r.PostForm.Get("p_v"))
			if r.PostForm.Get("p_i") == "00" {
				value, _ := strconv.ParseUint(r.PostForm.Get("p_v"), 16, 8)
				u.mode = byte(value)
			}
			u.mu.Unlock()
			fmt.Fprint(w, "OK")
			return
		}

		u.mu.Lock()
		mode := u.mode
		u.mu.Unlock()

		switch r.URL.Path {
		case "/30": // current operation mode
			fmt.Fprintf(w, "%02x%02x%02x%02x%02x", mode, mode, 2, 2, 60)
		case "/31": // duct sensors
			fmt.Fprint(w, u.sensorStream())
		case "/32": // warnings
			fmt.Fprint(w, "0000")
		case "/33": // maintenance
			fmt.Fprint(w, "0500000000")
		case "/34": // hardware variant
			fmt.Fprint(w, "01")
		case "/35": // temperature unit
			fmt.Fprint(w, "00")
		case "/36": // per-mode configuration
			fmt.Fprint(w, "3c0a50040f07140000")
		case "/43":
			fmt.Fprint(w, "Living Room")
		case "/44":
			fmt.Fprint(w, "Kitchen")
		default:
			fmt.Fprint(w, "")
		}
	})
}

func setupBackend(t *testing.T) (*gin.Engine, *poller.Manager, *fakeUnit, string, int) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testDB, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(&model.Device{}, &model.PushSubscription{}))
	t.Cleanup(func() {
		sqlDB, _ := testDB.DB()
		sqlDB.Close()
	})

	unit := &fakeUnit{}
	unitServer := httptest.NewServer(unit.handler())
	t.Cleanup(unitServer.Close)

	unitURL, err := url.Parse(unitServer.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(unitURL.Port())
	require.NoError(t, err)

	appStore := store.NewGormStore(testDB)
	manager := poller.NewManager(context.Background(), time.Hour, nil)
	t.Cleanup(manager.Close)

	serverCfg := &config.ServerConfig{RateLimitPerSec: 10000}
	router := api.NewRouter(serverCfg, appStore, nil, manager)

	return router, manager, unit, unitURL.Hostname(), port
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// TestDeviceLifecycle registers a unit through the API, reads its
// status, switches it to Boost and finally unregisters it.
func TestDeviceLifecycle(t *testing.T) {
	router, manager, unit, host, port := setupBackend(t)

	// Register the unit. Registration probes it and records the
	// reported hardware variant.
	rec := doJSON(t, router, http.MethodPut, "/api/devices", gin.H{
		"name": "Attic unit",
		"host": host,
		"port": port,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var device model.Device
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &device))
	assert.Equal(t, "DXR Premium", device.Version)
	devicePath := fmt.Sprintf("/api/devices/%d", device.ID)

	runtime, ok := manager.Get(device.ID)
	require.True(t, ok, "registration should start a poller")
	runtime.Controller.SetSettleDelay(time.Millisecond)

	t.Run("Status After Refresh", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, devicePath+"/refresh", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = doJSON(t, router, http.MethodGet, devicePath+"/status", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var status struct {
			LastUpdateSuccess bool `json:"lastUpdateSuccess"`
			Snapshot          struct {
				Mode struct {
					CurrentMode int `json:"currentMode"`
				} `json:"mode"`
				Sensors struct {
					Sensors []struct {
						Type  int `json:"type"`
						Value int `json:"value"`
					} `json:"sensors"`
				} `json:"sensors"`
			} `json:"snapshot"`
			Derived struct {
				IsOn            bool   `json:"isOn"`
				SpeedPercentage int    `json:"speedPercentage"`
				PresetMode      string `json:"presetMode"`
			} `json:"derived"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))

		assert.True(t, status.LastUpdateSuccess)
		assert.Equal(t, 0, status.Snapshot.Mode.CurrentMode)
		assert.Equal(t, "Automatic", status.Derived.PresetMode)
		assert.True(t, status.Derived.IsOn)
		require.Len(t, status.Snapshot.Sensors.Sensors, 1)
		assert.Equal(t, 800, status.Snapshot.Sensors.Sensors[0].Value, "CO2 counts in steps of 8 ppm")
	})

	t.Run("Switch To Boost", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, devicePath+"/mode", gin.H{"preset": "Boost"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		unit.mu.Lock()
		writes := append([]string(nil), unit.writes...)
		unit.mu.Unlock()
		assert.Contains(t, writes, "00=02", "mode write should reach the unit")

		rec = doJSON(t, router, http.MethodGet, devicePath+"/status", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"presetMode":"Boost"`)
	})

	t.Run("Room Names", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, devicePath+"/rooms", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var rooms map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rooms))
		assert.Equal(t, "Living Room", rooms["0"])
		assert.Equal(t, "Kitchen", rooms["1"])
	})

	t.Run("Unregister", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodDelete, devicePath, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		_, ok := manager.Get(device.ID)
		assert.False(t, ok, "unregistering should stop the poller")

		rec = doJSON(t, router, http.MethodGet, devicePath+"/status", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

// TestRegisterUnreachableDevice verifies that a unit that does not
// answer the connection probe is rejected and never stored.
func TestRegisterUnreachableDevice(t *testing.T) {
	router, manager, _, _, _ := setupBackend(t)

	rec := doJSON(t, router, http.MethodPut, "/api/devices", gin.H{
		"name": "Ghost unit",
		"host": "127.0.0.1",
		"port": 1, // nothing listens here
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/devices", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())

	_, ok := manager.Get(1)
	assert.False(t, ok)
}
