package store

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"clawboard/internal/model"
)

// 快照文件（相对于输出目录，与前端读取路径一致）
const (
	RowsFile       = "raw/rows.json"
	SummaryFile    = "raw/summary.json"
	MasterFile     = "master/symbol_master.json"
	BySymbolFile   = "agg/by_symbol.json"
	AggSummaryFile = "agg/summary.json"
)

// ErrSnapshotNotFound 快照尚未生成
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Store 扁平 JSON 快照存储；读取过的行会缓存在内存中
type Store struct {
	dir string

	mu   sync.RWMutex
	rows []*model.Row
}

// New 创建 Store 并确保目录结构存在
func New(dir string) (*Store, error) {
	for _, sub := range []string{"raw", "master", "agg"} {
		if err := ensureDir(filepath.Join(dir, sub)); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return &Store{dir: dir}, nil
}

// Dir 输出目录
func (s *Store) Dir() string {
	return s.dir
}

// Path 快照文件的绝对路径
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, filepath.FromSlash(name))
}

// SaveRows 写入 rows.json 并刷新缓存
func (s *Store) SaveRows(rows []*model.Row) error {
	if rows == nil {
		rows = []*model.Row{}
	}
	if err := writeJSONAtomic(s.Path(RowsFile), rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	s.mu.Lock()
	s.rows = rows
	s.mu.Unlock()
	return nil
}

// LoadRows 读取 rows.json（优先使用缓存）
func (s *Store) LoadRows() ([]*model.Row, error) {
	s.mu.RLock()
	cached := s.rows
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	var rows []*model.Row
	if err := s.read(RowsFile, &rows); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.rows = rows
	s.mu.Unlock()
	return rows, nil
}

// SaveSummary 写入 raw/summary.json
func (s *Store) SaveSummary(summary model.Summary) error {
	return s.write(SummaryFile, summary)
}

// LoadSummary 读取 raw/summary.json
func (s *Store) LoadSummary() (model.Summary, error) {
	var summary model.Summary
	err := s.read(SummaryFile, &summary)
	return summary, err
}

// SaveMaster 写入 master/symbol_master.json
func (s *Store) SaveMaster(master *model.SymbolMaster) error {
	return s.write(MasterFile, master)
}

// LoadMaster 读取 master/symbol_master.json
func (s *Store) LoadMaster() (*model.SymbolMaster, error) {
	master := &model.SymbolMaster{}
	if err := s.read(MasterFile, master); err != nil {
		return nil, err
	}
	return master, nil
}

// SaveBySymbol 写入 agg/by_symbol.json 与 agg/summary.json
func (s *Store) SaveBySymbol(items []model.SymbolAgg, summary model.AggSummary) error {
	if items == nil {
		items = []model.SymbolAgg{}
	}
	if err := s.write(BySymbolFile, items); err != nil {
		return err
	}
	return s.write(AggSummaryFile, summary)
}

// LoadBySymbol 读取 agg/by_symbol.json
func (s *Store) LoadBySymbol() ([]model.SymbolAgg, error) {
	var items []model.SymbolAgg
	err := s.read(BySymbolFile, &items)
	return items, err
}

func (s *Store) write(name string, v interface{}) error {
	if err := writeJSONAtomic(s.Path(name), v); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (s *Store) read(name string, out interface{}) error {
	if err := readJSON(s.Path(name), out); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", name, ErrSnapshotNotFound)
		}
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	return nil
}
