package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server  ServerConfig  `toml:"server"`
	Data    DataConfig    `toml:"data"`
	Scan    ScanConfig    `toml:"scan"`
	Pricing PricingConfig `toml:"pricing"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// ScanConfig 扫描配置
type ScanConfig struct {
	IntervalMinutes int      `toml:"interval_minutes"`
	SourceDir       string   `toml:"source_dir"`
	NameFilters     []string `toml:"name_filters"` // 为空使用内置关键词表
}

// PricingConfig 兜底计价配置
type PricingConfig struct {
	DefaultPrice           float64 `toml:"default_price"`
	DefaultDeliveryMinDays int     `toml:"default_delivery_min_days"`
	DefaultDeliveryMaxDays int     `toml:"default_delivery_max_days"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20320,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Scan: ScanConfig{
			IntervalMinutes: 15,
			SourceDir:       "sync",
		},
		Pricing: PricingConfig{
			DefaultPrice:           600,
			DefaultDeliveryMinDays: 2,
			DefaultDeliveryMaxDays: 7,
		},
	}
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

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfigWithInfo 从 config.toml 加载配置并返回元信息
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{}
	config := DefaultConfig()

	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}

	configPath := filepath.Join(exeDir, "config.toml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(config, &info)
			return config, info, nil
		}
		return nil, info, err
	}

	info.PortSpecified = isPortSpecifiedInToml(data)

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, info, err
	}

	applyEnvOverrides(config, &info)
	return config, info, nil
}

// applyEnvOverrides 环境变量覆盖（用于部署与本地运行）
// 可选 .env 文件先注入进程环境，已存在的变量不被覆盖
func applyEnvOverrides(config *AppConfig, info *LoadConfigInfo) {
	_ = godotenv.Load()

	if v := os.Getenv("ECOSYNC_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
			info.PortSpecified = true
		}
	}
	if v := os.Getenv("ECOSYNC_DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}
	if v := os.Getenv("ECOSYNC_SOURCE_DIR"); v != "" {
		config.Scan.SourceDir = v
	}
	if v := os.Getenv("ECOSYNC_SCAN_INTERVAL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Scan.IntervalMinutes = n
		}
	}
	if v := os.Getenv("ECOSYNC_NAME_FILTERS"); v != "" {
		var filters []string
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				filters = append(filters, f)
			}
		}
		config.Scan.NameFilters = filters
	}
}

// LoadConfig 从 config.toml 加载配置
// 配置文件位于可执行文件同目录下
func LoadConfig() (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo()
	return config, err
}

// SaveConfig 保存配置到 config.toml
func SaveConfig(config *AppConfig) error {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}

	configPath := filepath.Join(exeDir, "config.toml")

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// EnsureDataDir 确保数据目录存在
// 数据目录位于可执行文件同目录下
func EnsureDataDir(config *AppConfig) (string, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}

	dataDir := config.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(exeDir, dataDir)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 上传文件暂存目录
	if err := os.MkdirAll(filepath.Join(dataDir, "uploads"), 0755); err != nil {
		return "", err
	}

	return dataDir, nil
}

// ResolveSourceDir 解析来源目录绝对路径
func ResolveSourceDir(config *AppConfig) string {
	dir := config.Scan.SourceDir
	if filepath.IsAbs(dir) {
		return dir
	}
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, dir)
}
