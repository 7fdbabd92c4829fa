package field

import (
	"fmt"
	"math"

	"github.com/annel0/essence-field/internal/vec"
)

// SpatialIndex равномерная сетка над плоскостью XZ для быстрого поиска зондов.
// Ячейка определяется усечением координат позиции; ключ ячейки упаковывается
// в одно 64-битное значение. Зонды считаются статическими: ячейка вычисляется
// один раз при вставке и при перемещении требует явного Remove + Insert.
type SpatialIndex struct {
	cellSize float64
	cells    map[int64][]ProbeID
}

// NewSpatialIndex создаёт индекс с указанным размером ячейки.
// Размер ячейки влияет только на производительность, не на корректность;
// разумное значение — порядка типичного радиуса запроса.
func NewSpatialIndex(cellSize float64) *SpatialIndex {
	if cellSize <= 0 {
		cellSize = 8.0
	}

	return &SpatialIndex{
		cellSize: cellSize,
		cells:    make(map[int64][]ProbeID),
	}
}

// cellCoord возвращает целочисленную координату ячейки для мировой координаты
func (si *SpatialIndex) cellCoord(v float64) int32 {
	return int32(math.Floor(v / si.cellSize))
}

// packCellKey упаковывает пару знаковых координат ячейки в один ключ
func packCellKey(cx, cz int32) int64 {
	return int64(uint64(uint32(cx))<<32 | uint64(uint32(cz)))
}

// Insert регистрирует зонд в ячейке, соответствующей его позиции
func (si *SpatialIndex) Insert(id ProbeID, position vec.Vec3Float) {
	key := packCellKey(si.cellCoord(position.X), si.cellCoord(position.Z))
	si.cells[key] = append(si.cells[key], id)
}

// Remove удаляет зонд из ячейки, выведенной из position.
// Должен вызываться с исходной позицией вставки: ячейка вычисляется из
// позиции, а не хранится по идентификатору. Возвращает false, если зонд
// в этой ячейке не найден.
func (si *SpatialIndex) Remove(id ProbeID, position vec.Vec3Float) bool {
	key := packCellKey(si.cellCoord(position.X), si.cellCoord(position.Z))
	bucket, exists := si.cells[key]
	if !exists {
		return false
	}

	for i, existing := range bucket {
		if existing == id {
			bucket[i] = bucket[len(bucket)-1]
			bucket = bucket[:len(bucket)-1]
			if len(bucket) == 0 {
				delete(si.cells, key)
			} else {
				si.cells[key] = bucket
			}
			return true
		}
	}
	return false
}

// QueryCircle дописывает в results все зонды из ячеек, которые могут
// пересекаться с кругом (center, radius). Результат — супермножество
// истинного содержимого круга (прямоугольник ячеек); точную проверку
// расстояния выполняет вызывающий код. Дубликатов не бывает: каждый зонд
// зарегистрирован ровно в одной ячейке.
func (si *SpatialIndex) QueryCircle(center vec.Vec2Float, radius float64, results *[]ProbeID) {
	minCX := si.cellCoord(center.X - radius)
	maxCX := si.cellCoord(center.X + radius)
	minCZ := si.cellCoord(center.Y - radius)
	maxCZ := si.cellCoord(center.Y + radius)

	for cx := minCX; cx <= maxCX; cx++ {
		for cz := minCZ; cz <= maxCZ; cz++ {
			if bucket, exists := si.cells[packCellKey(cx, cz)]; exists {
				*results = append(*results, bucket...)
			}
		}
	}
}

// Clear сбрасывает все ячейки
func (si *SpatialIndex) Clear() {
	si.cells = make(map[int64][]ProbeID)
}

// CellSize возвращает настроенный размер ячейки
func (si *SpatialIndex) CellSize() float64 {
	return si.cellSize
}

// CellCount возвращает количество непустых ячеек
func (si *SpatialIndex) CellCount() int {
	return len(si.cells)
}

// OccupancyStats возвращает суммарное число записей, максимальный и средний
// размер ячейки — для отладочных оверлеев
func (si *SpatialIndex) OccupancyStats() (total, maxBucket int, avg float64) {
	for _, bucket := range si.cells {
		total += len(bucket)
		if len(bucket) > maxBucket {
			maxBucket = len(bucket)
		}
	}
	if len(si.cells) > 0 {
		avg = float64(total) / float64(len(si.cells))
	}
	return total, maxBucket, avg
}

// String возвращает краткую статистику индекса
func (si *SpatialIndex) String() string {
	total, maxBucket, avg := si.OccupancyStats()
	return fmt.Sprintf("SpatialIndex: %d probes, %d cells, avg %.2f probes/cell, max %d probes/cell",
		total, len(si.cells), avg, maxBucket)
}
