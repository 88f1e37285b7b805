package importer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"clawboard/internal/calculator"
	"clawboard/internal/logging"
	"clawboard/internal/model"
	"clawboard/internal/source"
	"clawboard/internal/store"
)

const (
	masterCSV = "料金記号,料金,投入法記号,投入法,ブースID,対応マシン名\n" +
		"A,100円,P,3本,B-01,UFO 1号機\n" +
		"B,200円,Q,2本,B-02,UFO 2号機\n"
	dbCSV = "ブースID,記号,総売上,消化額,備考\n" +
		"B-01,AP,1000,300,\n" +
		"B-02,BQ,500,100,\n" +
		"B-03,,200,0,\n" +
		",,,,撤去予定\n" +
		",,,,\n"
)

func newTestCoordinator(t *testing.T, logger *logging.Logger) (*Coordinator, *store.Store) {
	t.Helper()
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	return NewCoordinator(st, source.NewFetcher(5*time.Second), nil, logger), st
}

func newSourceServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/db.csv", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(dbCSV))
	})
	mux.HandleFunc("/master.csv", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(masterCSV))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCoordinator_Run(t *testing.T) {
	srv := newSourceServer(t)
	core, logs := observer.New(zap.InfoLevel)
	c, st := newTestCoordinator(t, logging.FromZap(zap.New(core)))

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	report, err := c.Run(context.Background(), ImportOptions{
		DBLocation:     srv.URL + "/db.csv",
		MasterLocation: srv.URL + "/master.csv",
		Now:            now,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "2026-03-01T09:00:00Z", report.UpdatedAt)
	assert.Equal(t, 2, report.Master.Records)
	assert.Equal(t, 2, report.Master.Machines)
	assert.Equal(t, 2, report.Master.Codes[model.CatPrice])
	assert.Equal(t, 3, report.Sheet.ImportedRows)
	assert.Equal(t, 1, report.Sheet.SkippedRows, "仅有备注的行被跳过，全空行在读表时已丢弃")
	assert.Equal(t, 3, report.Symbols)
	assert.Equal(t, 3, report.DistinctSymbols)

	rows, err := st.LoadRows()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "UFO 1号機", rows[0].MachineName)
	assert.Equal(t, "100円", rows[0].Decoded.Label(model.CatPrice))
	assert.Equal(t, "B-03", rows[2].MachineName)

	summary, err := st.LoadSummary()
	require.NoError(t, err)
	assert.Equal(t, report.RunID, summary.RunID)
	assert.Equal(t, 3, summary.RowCount)
	assert.Equal(t, 1700.0, summary.TotalSales)
	assert.Equal(t, 400.0, summary.TotalClaw)
	assert.Equal(t, 3, summary.MachineCount)
	require.NotNil(t, summary.CostRate)
	assert.InDelta(t, 400*1.1/1700, *summary.CostRate, 1e-9)

	master, err := st.LoadMaster()
	require.NoError(t, err)
	label, ok := master.Lookup(model.CatMethod, "Q")
	require.True(t, ok)
	assert.Equal(t, "2本", label)

	bySymbol, err := st.LoadBySymbol()
	require.NoError(t, err)
	require.Len(t, bySymbol, 3)
	assert.Equal(t, "AP", bySymbol[0].Symbol)
	assert.Equal(t, calculator.UnsetSymbolLabel, bySymbol[2].Symbol)

	parsed := logs.FilterMessage("db parsed").All()
	require.Len(t, parsed, 1)
	assert.EqualValues(t, 3, parsed[0].ContextMap()["distinct_symbols"])

	done := logs.FilterMessage("build done").All()
	require.Len(t, done, 1)
	assert.Equal(t, report.RunID, done[0].ContextMap()["run_id"])
}

func TestCoordinator_ImportEvents(t *testing.T) {
	srv := newSourceServer(t)
	c, _ := newTestCoordinator(t, nil)
	reportPath := filepath.Join(t.TempDir(), "kpi.xlsx")

	ch := c.Import(context.Background(), ImportOptions{
		DBLocation:     srv.URL + "/db.csv",
		MasterLocation: srv.URL + "/master.csv",
		ReportPath:     reportPath,
	})

	var events []ProgressEvent
	for evt := range ch {
		require.NotEqual(t, EventError, evt.Type, evt.Message)
		events = append(events, evt)
	}
	require.NotEmpty(t, events)
	assert.Equal(t, EventStart, events[0].Type)

	var messages []string
	for _, evt := range events {
		messages = append(messages, evt.Message)
	}
	assert.Contains(t, messages, "报表 90% 记号别汇总 記号別")

	last := events[len(events)-1]
	require.Equal(t, EventDone, last.Type)
	report, ok := last.Data.(*ImportReport)
	require.True(t, ok, "unexpected report type: %T", last.Data)
	assert.Equal(t, reportPath, report.ReportPath)

	_, err := os.Stat(reportPath)
	assert.NoError(t, err)
}

func TestCoordinator_WithoutMaster(t *testing.T) {
	srv := newSourceServer(t)
	c, st := newTestCoordinator(t, nil)

	report, err := c.Run(context.Background(), ImportOptions{DBLocation: srv.URL + "/db.csv"})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Master.Machines)

	rows, err := st.LoadRows()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, 0, rows[0].Decoded.Matched())
	assert.Equal(t, "B-01", rows[0].MachineName)
}

func TestCoordinator_Workbook(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "DB"))
	_, err := f.NewSheet("マスタ")
	require.NoError(t, err)
	dbRows := [][]interface{}{
		{"ブースID", "記号", "総売上", "消化額", "景品名"},
		{"B-01", "AP", 1000, 300, "ポテト"},
	}
	for i, r := range dbRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("DB", cell, &r))
	}
	masterRows := [][]interface{}{
		{"料金記号", "料金", "投入法記号", "投入法", "ブースID", "対応マシン名"},
		{"A", "100円", "P", "3本", "B-01", "UFO 1号機"},
	}
	for i, r := range masterRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("マスタ", cell, &r))
	}
	path := filepath.Join(t.TempDir(), "sources.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	c, st := newTestCoordinator(t, nil)
	report, err := c.Run(context.Background(), ImportOptions{DBLocation: path, MasterLocation: path})
	require.NoError(t, err)
	assert.Equal(t, "マスタ", report.Master.SheetName)
	assert.Equal(t, "DB", report.Sheet.SheetName)

	rows, err := st.LoadRows()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "UFO 1号機", rows[0].MachineName)
	assert.Equal(t, "100円", rows[0].Decoded.Label(model.CatPrice))

	_, err = c.Run(context.Background(), ImportOptions{DBLocation: path, DBSheet: "none"})
	assert.Error(t, err)
}

func TestCoordinator_NoSources(t *testing.T) {
	c, _ := newTestCoordinator(t, nil)

	_, err := c.Run(context.Background(), ImportOptions{})
	assert.True(t, errors.Is(err, ErrNoSources))

	var last ProgressEvent
	for evt := range c.Import(context.Background(), ImportOptions{}) {
		last = evt
	}
	assert.Equal(t, EventError, last.Type)
}

func TestCoordinator_FetchError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	c, st := newTestCoordinator(t, nil)

	_, err := c.Run(context.Background(), ImportOptions{
		DBLocation:     srv.URL + "/db.csv",
		MasterLocation: srv.URL + "/master.csv",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, source.ErrHTTPStatus))

	_, err = st.LoadRows()
	assert.True(t, errors.Is(err, store.ErrSnapshotNotFound), "失败时不写快照")
}
