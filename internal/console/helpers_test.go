package console

import (
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"

	"github.com/slopewatch/slopewatch-go/internal/api"
	"github.com/slopewatch/slopewatch-go/internal/httpclient"
	"github.com/slopewatch/slopewatch-go/internal/notify"
)

const testBackend = "http://backend.test"

type testHarness struct {
	ctrl     *Controller
	notifier *notify.Recorder
	// confirmed controls what the confirmer answers.
	confirmed bool
}

// newTestHarness wires a Controller against httpmock with a recording
// notifier and a configurable confirmer.
func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)

	h := &testHarness{notifier: &notify.Recorder{}, confirmed: true}

	hc := httpclient.NewWithClient(http.DefaultClient, nil)
	client := api.NewClient(testBackend, hc)
	client.SetTokenProvider(func() string { return "test-token" })

	h.ctrl = New(Config{
		API:      client,
		Notifier: h.notifier,
		Confirm:  func(string) bool { return h.confirmed },
	})
	return h
}

func mockJSON(method, path string, status int, body string) {
	httpmock.RegisterResponder(method, testBackend+path,
		httpmock.NewStringResponder(status, body))
}
