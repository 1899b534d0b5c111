package web

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flipperdeck/internal/domain/models"
	"flipperdeck/internal/domain/ports"
	"flipperdeck/internal/infrastructure/config"
	"flipperdeck/internal/infrastructure/logger"
	"flipperdeck/internal/service/activity"
	"flipperdeck/internal/service/catalog"
	"flipperdeck/internal/service/connection"
	"flipperdeck/internal/service/telemetry"
	"flipperdeck/internal/ui/controller"
	"flipperdeck/internal/ui/viewmodel"
)

// noPorts селектор хоста без последовательных портов
type noPorts struct{}

func (noPorts) Select(context.Context) (string, error) { return "", ports.ErrSerialUnsupported }

type nopOpener struct{}

func (nopOpener) Open(string, int) (ports.SerialPort, error) {
	return nil, errors.New("unexpected open")
}

type stubLister struct {
	ports []string
	err   error
}

func (l stubLister) ListPorts() ([]string, error) { return l.ports, l.err }

func newTestServer(t *testing.T, lister stubLister) (*Server, *activity.Log) {
	t.Helper()
	log := activity.NewLog()
	mgr := connection.NewManager(noPorts{}, nopOpener{}, log, logger.NewDiscard(), connection.Config{})
	ctrl := controller.NewMainController(
		viewmodel.NewMainViewModel(),
		mgr,
		catalog.NewDefault(),
		telemetry.NewGeneratorWithSource(rand.NewPCG(7, 7)),
		log,
		logger.NewDiscard(),
		config.DefaultCommands(),
	)
	return NewServer(ctrl, log, lister, logger.NewDiscard(), Options{RequestLogging: true, BodyLimit: "1K"}), log
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, stubLister{})
	rec := do(t, s, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestState_Initial(t *testing.T) {
	s, _ := newTestServer(t, stubLister{})
	rec := do(t, s, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var vm viewmodel.MainViewModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vm))
	assert.Equal(t, viewmodel.StatusDisconnected, vm.Status)
	assert.Len(t, vm.Scripts, 6)
	assert.Len(t, vm.Commands, len(config.DefaultCommands()))
}

func TestScripts_Filter(t *testing.T) {
	s, _ := newTestServer(t, stubLister{})

	rec := do(t, s, http.MethodGet, "/api/scripts?q=signal&category=badusb", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var scripts []models.ScriptEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scripts))
	require.Len(t, scripts, 1)
	assert.Equal(t, "GPIO Playbook", scripts[0].Name)

	rec = do(t, s, http.MethodGet, "/api/scripts?q=zzz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/scripts?category=lasers", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPorts(t *testing.T) {
	s, _ := newTestServer(t, stubLister{ports: []string{"/dev/ttyACM0"}})
	rec := do(t, s, http.MethodGet, "/api/ports", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ports":["/dev/ttyACM0"]}`, rec.Body.String())

	s, _ = newTestServer(t, stubLister{})
	rec = do(t, s, http.MethodGet, "/api/ports", "")
	assert.JSONEq(t, `{"ports":[]}`, rec.Body.String())

	s, _ = newTestServer(t, stubLister{err: errors.New("enumeration failed")})
	rec = do(t, s, http.MethodGet, "/api/ports", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAction_Demo(t *testing.T) {
	s, log := newTestServer(t, stubLister{})
	rec := do(t, s, http.MethodPost, "/api/actions/demo", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var vm viewmodel.MainViewModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vm))
	assert.Equal(t, viewmodel.StatusDemo, vm.Status)
	assert.True(t, vm.DemoMode)
	assert.Len(t, vm.Telemetry, 4)
	assert.Equal(t, 1, log.Len())
}

func TestAction_SearchWithArg(t *testing.T) {
	s, _ := newTestServer(t, stubLister{})
	rec := do(t, s, http.MethodPost, "/api/actions/search", `{"arg":"nfc"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var vm viewmodel.MainViewModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vm))
	assert.Equal(t, "nfc", vm.Query)
	require.Len(t, vm.Scripts, 1)
	assert.Equal(t, "NFC Fun Files", vm.Scripts[0].Name)
}

func TestAction_Errors(t *testing.T) {
	s, _ := newTestServer(t, stubLister{})

	rec := do(t, s, http.MethodPost, "/api/actions/self-destruct", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/actions/category", `{"arg":"lasers"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/actions/search", `{"arg":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/actions/search", `{"arg":"`+strings.Repeat("a", 2048)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAction_ConnectUnsupported(t *testing.T) {
	s, log := newTestServer(t, stubLister{})
	rec := do(t, s, http.MethodPost, "/api/actions/connect", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var vm viewmodel.MainViewModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vm))
	assert.Equal(t, viewmodel.StatusUnsupported, vm.Status)
	assert.Equal(t, models.ToneAlert, vm.Tone)
	require.Equal(t, 1, log.Len())
	assert.Equal(t, connection.MsgUnsupported, log.Entries()[0].Message)
}

func TestLog_Since(t *testing.T) {
	s, log := newTestServer(t, stubLister{})
	log.Append("one")
	log.Append("two")
	log.Append("three")

	rec := do(t, s, http.MethodGet, "/api/log?since=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp logResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "two", resp.Entries[0].Message)
	assert.Equal(t, uint64(3), resp.Next)

	rec = do(t, s, http.MethodGet, "/api/log?since=3", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Entries)
	assert.Equal(t, uint64(3), resp.Next)

	rec = do(t, s, http.MethodGet, "/api/log?since=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIndexPage(t *testing.T) {
	s, _ := newTestServer(t, stubLister{})
	rec := do(t, s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Flipper Deck")
}

func TestActions_List(t *testing.T) {
	s, _ := newTestServer(t, stubLister{})
	rec := do(t, s, http.MethodGet, "/api/actions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"cmd.info"`)
}
