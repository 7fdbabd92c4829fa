package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/essence-field/internal/api"
	"github.com/annel0/essence-field/internal/config"
	"github.com/annel0/essence-field/internal/field"
	"github.com/annel0/essence-field/internal/logging"
	"github.com/annel0/essence-field/internal/observability"
	"github.com/annel0/essence-field/internal/vec"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (или ENV FIELD_CONFIG)")
	flag.Parse()

	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("Запуск рантайма поля эссенции...")

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("Ошибка загрузки конфигурации: %v", err)
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	restPort := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	logging.Info("Конфигурация: cell_size=%.1f recovery=%.1fs/%.1fs tick_rate=%d REST=%s",
		cfg.Field.CellSize, cfg.Field.RecoverySeconds, cfg.Field.RecoveryDelay,
		cfg.Field.TickRate, restPort)

	// === OBSERVABILITY ===
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := observability.InitTelemetry(ctx, "essence-field")
	if err != nil {
		// Телеметрия не критична для работы поля
		logging.Warn("OpenTelemetry недоступен: %v", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	// === ИНИЦИАЛИЗАЦИЯ ПОЛЯ ===
	runtime := field.NewRuntime(field.Options{
		CellSize:        cfg.Field.CellSize,
		RecoverySeconds: cfg.Field.RecoverySeconds,
		RecoveryDelay:   cfg.Field.RecoveryDelay,
		Metrics:         field.NewMetrics(nil),
	})

	spawners, err := buildSpawners(cfg.Spawn.Spawners)
	if err != nil {
		logging.Error("Ошибка конфигурации спавнеров: %v", err)
		log.Fatalf("Ошибка конфигурации спавнеров: %v", err)
	}

	if _, err := runtime.SpawnField(cfg.Spawn.Seed, spawners); err != nil {
		logging.Error("Ошибка расстановки зондов: %v", err)
		log.Fatalf("Ошибка расстановки зондов: %v", err)
	}

	// === REST API ===
	restServer, err := api.NewRestServer(api.Config{
		Port:    restPort,
		Runtime: runtime,
	})
	if err != nil {
		logging.Error("Ошибка создания REST сервера: %v", err)
		log.Fatalf("Ошибка создания REST сервера: %v", err)
	}
	restServer.Start()

	// === ЦИКЛ СИМУЛЯЦИИ ===
	tickRate := cfg.Field.TickRate
	if tickRate <= 0 {
		tickRate = 20
	}
	go runSimulation(ctx, runtime, tickRate)

	logging.Info("Поле запущено: %d зондов, REST http://localhost%s", runtime.ProbeCount(), restPort)

	// Ждем сигнала для завершения
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logging.Info("Получен сигнал %v, завершение работы...", sig)

	// === GRACEFUL SHUTDOWN ===
	cancel()

	if err := restServer.Stop(); err != nil {
		logging.Error("Ошибка остановки REST сервера: %v", err)
	}
	if err := shutdownTelemetry(context.Background()); err != nil {
		logging.Error("Ошибка остановки телеметрии: %v", err)
	}

	logging.Info("Сервер остановлен")
}

// runSimulation крутит фиксированный цикл тиков поля до отмены контекста
func runSimulation(ctx context.Context, runtime *field.Runtime, tickRate int) {
	dt := 1.0 / float64(tickRate)
	ticker := time.NewTicker(time.Duration(float64(time.Second) * dt))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runtime.Tick(dt)
		}
	}
}

// buildSpawners переводит конфигурацию спавнеров в описания поля
func buildSpawners(configs []config.SpawnerConfig) ([]field.Spawner, error) {
	spawners := make([]field.Spawner, 0, len(configs))
	for i, sc := range configs {
		shape, err := field.ParseSpawnShape(sc.Shape)
		if err != nil {
			return nil, fmt.Errorf("спавнер %d: %w", i, err)
		}

		spawners = append(spawners, field.Spawner{
			Shape:    shape,
			Center:   vec.Vec3Float{X: sc.CenterX, Y: sc.CenterY, Z: sc.CenterZ},
			Radius:   sc.Radius,
			Width:    sc.Width,
			Depth:    sc.Depth,
			Rows:     sc.Rows,
			Cols:     sc.Cols,
			Step:     sc.Step,
			Count:    sc.Count,
			Capacity: sc.Capacity,
			Density:  sc.Density,
			FloorID:  sc.FloorID,
		})
	}
	return spawners, nil
}
