package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigFile 默认配置文件名
const DefaultConfigFile = "clawboard.toml"

// 默认数据源（公开发布的表格 CSV）
const (
	defaultDBURL     = "https://docs.google.com/spreadsheets/d/e/2PACX-1vSYAO0VSIbTG2fa-9W2Jl1NuG9smC4BOfqNZWiwsb5IHEIYWgcUWgCe_SZTWBPrnFiodfIGdxvKe7Up/pub?gid=1317014562&single=true&output=csv"
	defaultMasterURL = "https://docs.google.com/spreadsheets/d/e/2PACX-1vSYAO0VSIbTG2fa-9W2Jl1NuG9smC4BOfqNZWiwsb5IHEIYWgcUWgCe_SZTWBPrnFiodfIGdxvKe7Up/pub?gid=369838476&single=true&output=csv"
)

// AppConfig 应用配置
type AppConfig struct {
	Source  SourceConfig        `toml:"source"`
	Output  OutputConfig        `toml:"output"`
	Server  ServerConfig        `toml:"server"`
	Log     LogConfig           `toml:"log"`
	Aliases map[string][]string `toml:"aliases"`
}

// SourceConfig 数据源配置；地址可以是 URL 或本地文件（csv / xlsx）
type SourceConfig struct {
	DBURL          string `toml:"db_url"`
	MasterURL      string `toml:"master_url"`
	DBSheet        string `toml:"db_sheet"`     // xlsx 时指定 Sheet，空则自动识别
	MasterSheet    string `toml:"master_sheet"` // 同上
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	Dir        string `toml:"dir"`
	ReportPath string `toml:"report_path"` // 可选的 KPI 工作簿
}

// ServerConfig 预览服务器配置
type ServerConfig struct {
	Port      int    `toml:"port"`
	DevMode   bool   `toml:"dev_mode"`
	StaticDir string `toml:"static_dir"`
}

// LogConfig 日志配置
type LogConfig struct {
	Mode string `toml:"mode"` // dev / prod
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	Found         bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Source: SourceConfig{
			DBURL:          defaultDBURL,
			MasterURL:      defaultMasterURL,
			TimeoutSeconds: 30,
		},
		Output: OutputConfig{
			Dir: filepath.Join("docs", "data"),
		},
		Server: ServerConfig{
			Port:      20262,
			DevMode:   false,
			StaticDir: "docs",
		},
		Log: LogConfig{
			Mode: "dev",
		},
		Aliases: map[string][]string{},
	}
}

// Timeout 数据源读取超时
func (c *AppConfig) Timeout() time.Duration {
	if c.Source.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// LoadConfigWithInfo 加载配置并返回元信息
// path 为空时读取当前目录下的 clawboard.toml；文件不存在时使用默认配置
func LoadConfigWithInfo(path string) (*AppConfig, LoadConfigInfo, error) {
	if path == "" {
		path = DefaultConfigFile
	}
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.Found = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, err
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	applyEnv(config)
	return config, info, nil
}

// applyEnv 环境变量覆盖（CI 中注入数据源地址）
func applyEnv(config *AppConfig) {
	if v := os.Getenv("DB_CSV_URL"); v != "" {
		config.Source.DBURL = v
	}
	if v := os.Getenv("SYMBOL_MASTER_CSV_URL"); v != "" {
		config.Source.MasterURL = v
	}
	if v := os.Getenv("CLAWBOARD_OUTPUT_DIR"); v != "" {
		config.Output.Dir = v
	}
	if v := os.Getenv("CLAWBOARD_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			config.Server.Port = port
		}
	}
}

// LoadConfig 加载配置
func LoadConfig(path string) (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo(path)
	return config, err
}

// SaveConfig 保存配置
func SaveConfig(path string, config *AppConfig) error {
	if path == "" {
		path = DefaultConfigFile
	}
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
