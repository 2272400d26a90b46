package console

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProjectsFillsCache(t *testing.T) {
	h := newTestHarness(t)
	mockJSON(http.MethodGet, "/api/admin/projects", http.StatusOK,
		`[{"id":1,"project_code":"P1","name":"Valley North","station_count":3},
		  {"id":2,"project_code":"P2","name":"Ridge East","station_count":0}]`)

	require.NoError(t, h.ctrl.LoadProjects(context.Background()))

	projects := h.ctrl.Projects()
	require.Len(t, projects, 2)
	assert.Equal(t, "Valley North", projects[0].Name)
	assert.Equal(t, 3, projects[0].StationCount)
	assert.Equal(t, "Valley North", h.ctrl.ProjectName(1))
}

func TestLoadProjectsFailureKeepsStaleCache(t *testing.T) {
	h := newTestHarness(t)
	mockJSON(http.MethodGet, "/api/admin/projects", http.StatusOK,
		`[{"id":1,"project_code":"P1","name":"Valley North","station_count":3}]`)
	require.NoError(t, h.ctrl.LoadProjects(context.Background()))

	httpmock.Reset()
	mockJSON(http.MethodGet, "/api/admin/projects", http.StatusInternalServerError,
		`{"detail":"database unavailable"}`)

	err := h.ctrl.LoadProjects(context.Background())
	require.Error(t, err)
	assert.Len(t, h.ctrl.Projects(), 1, "previous cache survives a failed reload")
	assert.Equal(t, "error", h.notifier.Last().Level)
	assert.Equal(t, "database unavailable", h.notifier.Last().Text)
}

func TestStaleProjectLoadDoesNotOverwriteNewer(t *testing.T) {
	h := newTestHarness(t)

	// The first request stalls inside its responder until released; a
	// second load is issued and completes in the meantime.
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})

	httpmock.RegisterResponder(http.MethodGet, testBackend+"/api/admin/projects",
		func(req *http.Request) (*http.Response, error) {
			if calls.Add(1) == 1 {
				close(entered)
				<-release
				return httpmock.NewStringResponse(http.StatusOK,
					`[{"id":1,"project_code":"P1","name":"Stale","station_count":0}]`), nil
			}
			return httpmock.NewStringResponse(http.StatusOK,
				`[{"id":1,"project_code":"P1","name":"Fresh","station_count":2}]`), nil
		})

	firstDone := make(chan error, 1)
	go func() { firstDone <- h.ctrl.LoadProjects(context.Background()) }()
	<-entered

	require.NoError(t, h.ctrl.LoadProjects(context.Background()))

	close(release)
	require.NoError(t, <-firstDone)

	projects := h.ctrl.Projects()
	require.Len(t, projects, 1)
	assert.Equal(t, "Fresh", projects[0].Name, "a superseded response must not land")
	assert.Equal(t, 2, projects[0].StationCount)
}

func TestCreateProjectValidatesLocally(t *testing.T) {
	h := newTestHarness(t)

	err := h.ctrl.CreateProject(context.Background(), "  ", "", "", "")
	require.Error(t, err)
	assert.Equal(t, 0, httpmock.GetTotalCallCount(), "validation failure must not reach the network")
	assert.True(t, h.notifier.HasLevel("warning"))
}

func TestDeleteProjectDeniedConfirmSendsNothing(t *testing.T) {
	h := newTestHarness(t)
	h.confirmed = false

	require.NoError(t, h.ctrl.DeleteProject(context.Background(), 1))
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
	assert.Equal(t, "info", h.notifier.Last().Level)
}

func TestLoadStationsEntersStationView(t *testing.T) {
	h := newTestHarness(t)
	mockJSON(http.MethodGet, "/api/admin/projects/5/stations", http.StatusOK,
		`[{"id":10,"station_code":"S10","name":"Hillside","status":"active","project_id":5}]`)

	require.NoError(t, h.ctrl.LoadStations(context.Background(), 5))

	assert.Equal(t, ViewStations, h.ctrl.CurrentView())
	assert.Equal(t, int64(5), h.ctrl.CurrentProjectID())
	assert.True(t, h.ctrl.CanGoBack())
	require.Len(t, h.ctrl.Stations(), 1)
}

func TestLoadStationsFailureLeavesNavigationAlone(t *testing.T) {
	h := newTestHarness(t)
	mockJSON(http.MethodGet, "/api/admin/projects/5/stations", http.StatusInternalServerError,
		`{"detail":"boom"}`)

	require.Error(t, h.ctrl.LoadStations(context.Background(), 5))
	assert.Equal(t, ViewProjects, h.ctrl.CurrentView())
	assert.False(t, h.ctrl.CanGoBack())
}

func TestGoBackRefetchesProjects(t *testing.T) {
	h := newTestHarness(t)
	mockJSON(http.MethodGet, "/api/admin/projects/5/stations", http.StatusOK, `[]`)
	mockJSON(http.MethodGet, "/api/admin/projects", http.StatusOK,
		`[{"id":5,"project_code":"P5","name":"Fresh","station_count":0}]`)

	require.NoError(t, h.ctrl.LoadStations(context.Background(), 5))
	require.NoError(t, h.ctrl.GoBack(context.Background()))

	assert.Equal(t, ViewProjects, h.ctrl.CurrentView())
	info := httpmock.GetCallCountInfo()
	assert.Equal(t, 1, info["GET "+testBackend+"/api/admin/projects"],
		"navigating back must refetch the project list")
}

func TestSessionExpiryPropagatesFromAnyLoad(t *testing.T) {
	h := newTestHarness(t)
	mockJSON(http.MethodGet, "/api/admin/users", http.StatusUnauthorized,
		`{"detail":"Not authenticated"}`)

	err := h.ctrl.LoadUsers(context.Background())
	require.Error(t, err)
	// The API layer owns the logout; the controller only passes it on
	// without adding its own notification noise.
	assert.False(t, h.notifier.HasLevel("error"))
}

func TestCreateUserRequiresCredentials(t *testing.T) {
	h := newTestHarness(t)

	err := h.ctrl.CreateUser(context.Background(), "", "", "", "")
	require.Error(t, err)
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestCreateUserReloadsList(t *testing.T) {
	h := newTestHarness(t)
	mockJSON(http.MethodPost, "/api/admin/users", http.StatusOK,
		`{"id":3,"username":"maija","role":"viewer","is_active":true}`)
	mockJSON(http.MethodGet, "/api/admin/users", http.StatusOK,
		`[{"id":3,"username":"maija","role":"viewer","is_active":true}]`)

	require.NoError(t, h.ctrl.CreateUser(context.Background(), "maija", "secret", "Maija M", "viewer"))
	assert.Len(t, h.ctrl.Users(), 1)
	assert.True(t, h.notifier.HasLevel("success"))
}

func TestApplyVelocityClass(t *testing.T) {
	h := newTestHarness(t)

	require.NoError(t, h.ctrl.ApplyVelocityClass(5))
	assert.Equal(t, "success", h.notifier.Last().Level)

	require.Error(t, h.ctrl.ApplyVelocityClass(9))
	assert.Equal(t, "warning", h.notifier.Last().Level)
}

func TestVelocityScaleIsOrdered(t *testing.T) {
	scale := VelocityScale()
	require.Len(t, scale, 7)
	for i, v := range scale {
		assert.Equal(t, 7-i, v.Class)
	}
}
