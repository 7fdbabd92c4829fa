package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
// Содержит настройки поля зондов, спавнеров и сервисного слоя.

type Config struct {
	Field  FieldConfig  `yaml:"field"`
	Spawn  SpawnConfig  `yaml:"spawn"`
	Server ServerConfig `yaml:"server"`
}

// FieldConfig настраивает рантайм поля зондов
type FieldConfig struct {
	CellSize        float64 `yaml:"cell_size"`         // Размер ячейки пространственного индекса
	RecoverySeconds float64 `yaml:"recovery_seconds"`  // Время полного восстановления зонда; <= 0 отключает
	RecoveryDelay   float64 `yaml:"recovery_delay"`    // Задержка восстановления после дрейна, сек
	TickRate        int     `yaml:"tick_rate"`         // Частота симуляции, тиков в секунду
}

// SpawnConfig описывает процедурную расстановку зондов при старте
type SpawnConfig struct {
	Seed     int64           `yaml:"seed"`
	Spawners []SpawnerConfig `yaml:"spawners"`
}

// SpawnerConfig один спавнер: вид фигуры + параметры.
// Вместо иерархии типов используется её плоское описание (shape + поля),
// интерпретируемое одной функцией спавна.
type SpawnerConfig struct {
	Shape    string  `yaml:"shape"` // grid | disk | rect
	CenterX  float64 `yaml:"center_x"`
	CenterY  float64 `yaml:"center_y"`
	CenterZ  float64 `yaml:"center_z"`
	Radius   float64 `yaml:"radius"`   // для disk
	Width    float64 `yaml:"width"`    // для rect
	Depth    float64 `yaml:"depth"`    // для rect
	Rows     int     `yaml:"rows"`     // для grid
	Cols     int     `yaml:"cols"`     // для grid
	Step     float64 `yaml:"step"`     // шаг сетки / плотность заполнения
	Count    int     `yaml:"count"`    // количество зондов для disk/rect
	Capacity float64 `yaml:"capacity"` // базовая ёмкость зонда
	Density  float64 `yaml:"density"`  // множитель извлечения
	FloorID  int     `yaml:"floor_id"` // -1 = без этажа
}

// ServerConfig настраивает отладочный REST сервис
type ServerConfig struct {
	RESTPort int `yaml:"rest_port"`
}

// GetRESTPort возвращает REST порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "FIELD_REST_PORT", 8088)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// Defaults возвращает конфигурацию по умолчанию (одно тестовое поле из сетки зондов)
func Defaults() *Config {
	return &Config{
		Field: FieldConfig{
			CellSize:        8.0,
			RecoverySeconds: 30.0,
			RecoveryDelay:   2.0,
			TickRate:        20,
		},
		Spawn: SpawnConfig{
			Seed: 1,
			Spawners: []SpawnerConfig{
				{
					Shape:    "grid",
					Rows:     16,
					Cols:     16,
					Step:     4.0,
					Capacity: 10.0,
					Density:  1.0,
					FloorID:  -1,
				},
			},
		},
		Server: ServerConfig{},
	}
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV FIELD_CONFIG или возвращает дефолты.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("FIELD_CONFIG")
		if path == "" {
			return Defaults(), nil // конфиг не задан — использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
	}

	return cfg, nil
}
