package field

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/aquilax/go-perlin"

	"github.com/annel0/essence-field/internal/vec"
)

// SpawnShape вид фигуры процедурного спавнера
type SpawnShape int

const (
	ShapeGrid SpawnShape = iota
	ShapeDisk
	ShapeRect
)

// ParseSpawnShape разбирает имя фигуры из конфигурации
func ParseSpawnShape(s string) (SpawnShape, error) {
	switch s {
	case "grid":
		return ShapeGrid, nil
	case "disk":
		return ShapeDisk, nil
	case "rect":
		return ShapeRect, nil
	default:
		return 0, fmt.Errorf("неизвестная фигура спавнера: %q", s)
	}
}

// Spawner плоское описание одного спавнера: фигура + параметры.
// Все фигуры интерпретируются одной функцией спавна, без иерархии типов.
type Spawner struct {
	Shape  SpawnShape
	Center vec.Vec3Float
	Radius float64 // для ShapeDisk
	Width  float64 // для ShapeRect
	Depth  float64 // для ShapeRect
	Rows   int     // для ShapeGrid
	Cols   int     // для ShapeGrid
	Step   float64 // шаг сетки
	Count  int     // количество зондов для disk/rect

	Capacity float64 // базовая ёмкость; модулируется шумом
	Density  float64 // множитель извлечения
	FloorID  int
}

// Параметры шума Перлина для модуляции полей (сглаживание, частота, октавы)
const (
	noiseAlpha = 2.0
	noiseBeta  = 2.0
	noiseN     = 3
	noiseScale = 0.05
)

// fieldSpawner детерминированно расставляет зонды по описаниям спавнеров.
// Шум Перлина модулирует цвет и ёмкость по пространству, чтобы поле
// выглядело однородно-пятнистым, а не случайным по каждому зонду.
type fieldSpawner struct {
	store *ProbeStore
	noise *perlin.Perlin
	rng   *rand.Rand
}

// newFieldSpawner создаёт спавнер с указанным сидом
func newFieldSpawner(store *ProbeStore, seed int64) *fieldSpawner {
	return &fieldSpawner{
		store: store,
		noise: perlin.NewPerlin(noiseAlpha, noiseBeta, noiseN, seed),
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// noise01 возвращает шум в диапазоне [0, 1) для мировой точки
func (fs *fieldSpawner) noise01(x, z float64) float64 {
	v := (fs.noise.Noise2D(x*noiseScale, z*noiseScale) + 1.0) / 2.0
	if v < 0 {
		v = 0
	}
	if v >= 1 {
		v = math.Nextafter(1, 0)
	}
	return v
}

// spawnAt регистрирует один зонд с модулированными шумом цветом и ёмкостью
func (fs *fieldSpawner) spawnAt(pos vec.Vec3Float, sp *Spawner) ProbeID {
	color := Color(int(fs.noise01(pos.X, pos.Z) * ColorCount))

	// Ёмкость колеблется в пределах ±25% от базовой; сэмплируем шум со
	// сдвигом, чтобы ёмкость не коррелировала с цветом
	capacity := sp.Capacity * (0.75 + 0.5*fs.noise01(pos.X+1000, pos.Z+1000))

	density := sp.Density
	if density <= 0 {
		density = 1.0
	}

	return fs.store.Register(pos, color, capacity, density, sp.FloorID)
}

// run расставляет зонды одного спавнера, возвращает число созданных
func (fs *fieldSpawner) run(sp *Spawner) (int, error) {
	switch sp.Shape {
	case ShapeGrid:
		if sp.Rows <= 0 || sp.Cols <= 0 || sp.Step <= 0 {
			return 0, fmt.Errorf("grid-спавнер требует rows, cols и step > 0")
		}
		offsetX := -float64(sp.Cols-1) * sp.Step / 2
		offsetZ := -float64(sp.Rows-1) * sp.Step / 2
		for row := 0; row < sp.Rows; row++ {
			for col := 0; col < sp.Cols; col++ {
				fs.spawnAt(vec.Vec3Float{
					X: sp.Center.X + offsetX + float64(col)*sp.Step,
					Y: sp.Center.Y,
					Z: sp.Center.Z + offsetZ + float64(row)*sp.Step,
				}, sp)
			}
		}
		return sp.Rows * sp.Cols, nil

	case ShapeDisk:
		if sp.Count <= 0 || sp.Radius <= 0 {
			return 0, fmt.Errorf("disk-спавнер требует count и radius > 0")
		}
		for i := 0; i < sp.Count; i++ {
			// Равномерное распределение по площади диска
			r := sp.Radius * math.Sqrt(fs.rng.Float64())
			theta := fs.rng.Float64() * 2 * math.Pi
			fs.spawnAt(vec.Vec3Float{
				X: sp.Center.X + r*math.Cos(theta),
				Y: sp.Center.Y,
				Z: sp.Center.Z + r*math.Sin(theta),
			}, sp)
		}
		return sp.Count, nil

	case ShapeRect:
		if sp.Count <= 0 || sp.Width <= 0 || sp.Depth <= 0 {
			return 0, fmt.Errorf("rect-спавнер требует count, width и depth > 0")
		}
		for i := 0; i < sp.Count; i++ {
			fs.spawnAt(vec.Vec3Float{
				X: sp.Center.X + (fs.rng.Float64()-0.5)*sp.Width,
				Y: sp.Center.Y,
				Z: sp.Center.Z + (fs.rng.Float64()-0.5)*sp.Depth,
			}, sp)
		}
		return sp.Count, nil

	default:
		return 0, fmt.Errorf("неизвестная фигура спавнера: %d", sp.Shape)
	}
}
