package console

// View identifies which list the console is currently showing.
type View string

const (
	ViewProjects View = "projects"
	ViewStations View = "stations"
)

type navEntry struct {
	view      View
	projectID int64
}

// Navigation tracks the project list -> station list drill-down with a
// back-stack. Breadcrumb and back-button visibility are derived from this
// state only, so they can never desync from it.
type Navigation struct {
	current   View
	projectID int64
	stack     []navEntry
}

// NewNavigation starts at the project list.
func NewNavigation() *Navigation {
	return &Navigation{current: ViewProjects}
}

// Reset returns to the project list and empties the back-stack.
func (n *Navigation) Reset() {
	n.current = ViewProjects
	n.projectID = 0
	n.stack = nil
}

// EnterStations pushes the current view and switches to the station list
// of the given project.
func (n *Navigation) EnterStations(projectID int64) {
	n.stack = append(n.stack, navEntry{view: n.current, projectID: n.projectID})
	n.current = ViewStations
	n.projectID = projectID
}

// GoBack pops the stack. It reports whether the pop landed on the project
// list, which obliges the caller to re-fetch the project list: a cached
// list must not be reused after navigating back.
func (n *Navigation) GoBack() (toProjects bool) {
	if len(n.stack) == 0 {
		return false
	}
	previous := n.stack[len(n.stack)-1]
	n.stack = n.stack[:len(n.stack)-1]

	if previous.view == ViewProjects {
		n.current = ViewProjects
		n.projectID = 0
		return true
	}

	n.current = previous.view
	n.projectID = previous.projectID
	return false
}

// Current returns the active view.
func (n *Navigation) Current() View {
	return n.current
}

// ProjectID returns the project scoping the station view, 0 when on the
// project list.
func (n *Navigation) ProjectID() int64 {
	return n.projectID
}

// CanGoBack reports whether the back action would do anything. Drives
// back-button visibility.
func (n *Navigation) CanGoBack() bool {
	return len(n.stack) > 0
}

// Breadcrumb returns the navigation trail for display. projectName names
// the currently scoped project; it is resolved by the caller from its
// project cache.
func (n *Navigation) Breadcrumb(projectName string) []string {
	crumbs := []string{"Projects"}
	if n.current == ViewStations {
		if projectName == "" {
			projectName = "Project"
		}
		crumbs = append(crumbs, projectName)
	}
	return crumbs
}
