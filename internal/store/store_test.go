package store

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clawboard/internal/model"
)

func sampleRow() *model.Row {
	values := make(map[string]model.Match)
	for _, key := range model.CategoryKeys(model.DefaultCategorySpecs()) {
		values[key] = model.Match{}
	}
	values[model.CatPrice] = model.Match{Label: "100円", Code: "A"}
	values[model.CatGenre] = model.Match{Label: "食品", Code: "F"}

	return &model.Row{
		BoothID:     "B-01",
		MachineName: "UFO 1号機",
		MachineKey:  "ufo1号機",
		SymbolRaw:   "AF",
		Sales:       0,
		Claw:        120,
		Genre:       "食品",
		PriceBand:   "100円",
		Flags:       model.Flags{Movie: true},
		Decoded:     model.Decoded{Strategy: model.StrategyPositional, Values: values},
	}
}

func TestStore_RowsSnapshot(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.SaveRows([]*model.Row{sampleRow()}))

	data, err := os.ReadFile(s.Path(RowsFile))
	require.NoError(t, err)

	var flat []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &flat))
	require.Len(t, flat, 1)
	assert.Equal(t, "100円", flat[0]["料金"])
	assert.Equal(t, "A", flat[0]["料金_code"])
	assert.Equal(t, "", flat[0]["年代"])
	assert.Nil(t, flat[0]["cost_rate"], "销售额为 0 时原价率为 null")
	assert.Equal(t, "B-01", flat[0]["booth_id"])
	assert.Equal(t, "positional", flat[0]["decode_strategy"])

	// 新实例不经过缓存，直接读文件
	fresh, err := New(s.Dir())
	require.NoError(t, err)
	rows, err := fresh.LoadRows()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	if diff := cmp.Diff(sampleRow(), rows[0]); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_MissingSnapshot(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.LoadRows()
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
	_, err = s.LoadMaster()
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestStore_SummaryAndBySymbol(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir())
	require.NoError(t, err)

	cr := 0.33
	summary := model.Summary{RunID: "r1", UpdatedAt: "2025-01-02T00:00:00Z", RowCount: 2, TotalSales: 100, TotalClaw: 30, CostRate: &cr, MachineCount: 1}
	require.NoError(t, s.SaveSummary(summary))
	got, err := s.LoadSummary()
	require.NoError(t, err)
	assert.Equal(t, summary, got)

	require.NoError(t, s.SaveBySymbol(nil, model.AggSummary{UpdatedAt: "x"}))
	items, err := s.LoadBySymbol()
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.FileExists(t, s.Path(AggSummaryFile))
}

func TestStore_MasterRebuildsOrder(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir())
	require.NoError(t, err)

	// 旧格式：没有 meta
	legacy := []byte(`{"dict":{"料金":{"1":"100円","12":"200円"}}}`)
	require.NoError(t, os.WriteFile(s.Path(MasterFile), legacy, 0644))

	master, err := s.LoadMaster()
	require.NoError(t, err)
	assert.Equal(t, []string{"12", "1"}, master.Order[model.CatPrice])
	assert.Len(t, master.Specs, 17)
	assert.NotNil(t, master.Dict[model.CatAge])

	require.NoError(t, s.SaveMaster(master))
	again, err := s.LoadMaster()
	require.NoError(t, err)
	assert.Equal(t, master.Dict, again.Dict)
	assert.Equal(t, master.Order, again.Order)
}
