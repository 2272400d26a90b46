package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNavigationStartsAtProjects(t *testing.T) {
	nav := NewNavigation()
	assert.Equal(t, ViewProjects, nav.Current())
	assert.False(t, nav.CanGoBack())
	assert.Equal(t, []string{"Projects"}, nav.Breadcrumb(""))
}

func TestEnterStationsPushesAndBreadcrumbFollows(t *testing.T) {
	nav := NewNavigation()
	nav.EnterStations(42)

	assert.Equal(t, ViewStations, nav.Current())
	assert.Equal(t, int64(42), nav.ProjectID())
	assert.True(t, nav.CanGoBack())
	assert.Equal(t, []string{"Projects", "Valley North"}, nav.Breadcrumb("Valley North"))
}

func TestGoBackToProjectsDemandsRefetch(t *testing.T) {
	nav := NewNavigation()
	nav.EnterStations(42)

	toProjects := nav.GoBack()
	assert.True(t, toProjects)
	assert.Equal(t, ViewProjects, nav.Current())
	assert.Zero(t, nav.ProjectID())
	assert.False(t, nav.CanGoBack())
}

func TestGoBackOnEmptyStackIsNoop(t *testing.T) {
	nav := NewNavigation()
	assert.False(t, nav.GoBack())
	assert.Equal(t, ViewProjects, nav.Current())
}

func TestResetClearsEverything(t *testing.T) {
	nav := NewNavigation()
	nav.EnterStations(7)
	nav.Reset()

	assert.Equal(t, ViewProjects, nav.Current())
	assert.Zero(t, nav.ProjectID())
	assert.False(t, nav.CanGoBack())
}

func TestBreadcrumbFallsBackWithoutProjectName(t *testing.T) {
	nav := NewNavigation()
	nav.EnterStations(42)
	assert.Equal(t, []string{"Projects", "Project"}, nav.Breadcrumb(""))
}
