package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"mebbisauto/internal/jobs"
	"mebbisauto/internal/routes"
	"mebbisauto/internal/store"
	"mebbisauto/internal/workflow"
)

// pageDriver serves canned grids and a permanently green success banner.
type pageDriver struct{}

func (pageDriver) Acquire(context.Context) error                      { return nil }
func (pageDriver) Release()                                           {}
func (pageDriver) NavigateTo(context.Context, routes.Page) error      { return nil }
func (pageDriver) WaitForReady(context.Context) error                 { return nil }
func (pageDriver) FillField(context.Context, string, string) error    { return nil }
func (pageDriver) SelectOption(context.Context, string, string) error { return nil }
func (pageDriver) Click(context.Context, string) error                { return nil }
func (pageDriver) WaitForElement(context.Context, string) error       { return nil }
func (pageDriver) ElementExists(context.Context, string) (bool, error) {
	return true, nil
}
func (pageDriver) GetText(context.Context, string) (string, bool, error) {
	return "", false, nil
}
func (pageDriver) OuterHTML(_ context.Context, selector string) (string, bool, error) {
	if selector == "#grdFaturaListesi" {
		return `<table>
			<tr><th></th><th></th><th></th><th></th><th></th><th></th></tr>
			<tr data-id="55"><td>12345678901</td><td>Ali Kaya</td><td>8</td><td>4</td><td>1</td><td>0</td></tr>
		</table>`, true, nil
	}
	return "<table><tr><th></th></tr></table>", true, nil
}
func (pageDriver) RunScript(context.Context, string) (gjson.Result, error) {
	return gjson.Parse(`""`), nil
}

// downDriver is a pageDriver whose portal never answers a navigation.
type downDriver struct{ pageDriver }

func (downDriver) NavigateTo(context.Context, routes.Page) error {
	return errors.New("devtools bağlantısı koptu")
}

func testServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	return testServerWith(t, pageDriver{})
}

func testServerWith(t *testing.T, drv workflow.Driver) (*httptest.Server, *store.Store) {
	t.Helper()
	st, err := store.Open(":memory:", nil)
	require.NoError(t, err)

	batch := workflow.NewBatch(0, nil)
	syncSvc := workflow.NewStudentSyncService(drv, nil)
	invoiceSvc := workflow.NewInvoiceService(drv, batch, nil)
	bepSvc := workflow.NewBepService(drv, batch, nil)

	runner := jobs.NewRunner(st, jobs.Services{
		Education: workflow.NewEducationService(drv, batch, nil),
		Sync:      syncSvc,
		Invoice:   invoiceSvc,
		Bep:       bepSvc,
	}, 8, nil)

	ctx, cancel := context.WithCancel(context.Background())
	runner.Start(ctx)

	srv := NewServer(runner, st, syncSvc, invoiceSvc, bepSvc, nil, nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		runner.Wait()
		_ = st.Close()
	})
	return ts, st
}

func getJSON(t *testing.T, url string) (int, gjson.Result) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, gjson.ParseBytes(raw)
}

func postJSON(t *testing.T, url, body string) (int, gjson.Result) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, gjson.ParseBytes(raw)
}

func TestHealth(t *testing.T) {
	ts, _ := testServer(t)
	status, body := getJSON(t, ts.URL+"/api/health")
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, body.Get("success").Bool())
	assert.Equal(t, "ok", body.Get("data.status").String())
}

func TestEducationSubmitValidation(t *testing.T) {
	ts, _ := testServer(t)

	status, body := postJSON(t, ts.URL+"/api/education/submit", `{"entries":[]}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, body.Get("success").Bool())

	status, body = postJSON(t, ts.URL+"/api/education/submit",
		`{"entries":[{"tarih":"2026-03-10","saat":"14:00","ogrenciTcKimlikNo":"123"}]}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body.Get("errors.0").String(), "11 haneli")
}

func TestEducationSubmitQueuesJob(t *testing.T) {
	ts, st := testServer(t)

	body := `{"entries":[{"tarih":"2026-03-10","saat":"14:00","durum":1,"ogrenciTcKimlikNo":"12345678901"}]}`
	status, resp := postJSON(t, ts.URL+"/api/education/submit", body)
	require.Equal(t, http.StatusAccepted, status)
	jobID := resp.Get("data.jobId").String()
	require.NotEmpty(t, jobID)

	require.Eventually(t, func() bool {
		job, err := st.Get(context.Background(), jobID)
		return err == nil && job.Status == store.StatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	status, resp = getJSON(t, ts.URL+"/api/status/"+jobID)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "completed", resp.Get("data.status").String())
}

func TestJobStatusNotFound(t *testing.T) {
	ts, _ := testServer(t)
	status, body := getJSON(t, ts.URL+"/api/status/bilinmeyen-id")
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, body.Get("success").Bool())
}

func TestInvoiceCandidates(t *testing.T) {
	ts, _ := testServer(t)

	status, body := getJSON(t, ts.URL+"/api/invoices/candidates?donem=2026-02")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "12345678901", body.Get("data.0.tcKimlikNo").String())
	assert.Equal(t, int64(8), body.Get("data.0.bireyselDersSayisi").Int())

	status, _ = getJSON(t, ts.URL+"/api/invoices/candidates?donem=subat")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestInvoiceApproveBadPeriod(t *testing.T) {
	ts, _ := testServer(t)
	status, _ := postJSON(t, ts.URL+"/api/invoices/approve", `{"donem":"2026/02"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestBepStudentsUnknownForm(t *testing.T) {
	ts, _ := testServer(t)
	status, _ := getJSON(t, ts.URL+"/api/bep/students?donem=2026-02&formType=ek9")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestBepStudentsOK(t *testing.T) {
	ts, _ := testServer(t)
	status, body := getJSON(t, ts.URL+"/api/bep/students?donem=2026-02&formType=ek4")
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, body.Get("success").Bool())
}

func TestBepStudentsPortalFailureIsBadGateway(t *testing.T) {
	ts, _ := testServerWith(t, downDriver{})
	status, body := getJSON(t, ts.URL+"/api/bep/students?donem=2026-02&formType=ek4")
	assert.Equal(t, http.StatusBadGateway, status, "an unreachable portal is an upstream failure, not a bad request")
	assert.False(t, body.Get("success").Bool())
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := testServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/health", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
