package field

import "github.com/annel0/essence-field/internal/vec"

// Epsilon порог, ниже которого количество эссенции считается нулём.
// Защищает от бесконечных микро-дрейнов и микро-восстановлений из-за
// накопления ошибок округления.
const Epsilon = 0.0001

// ProbeID стабильный идентификатор зонда: его слот в ProbeStore.
// Идентификаторы выдаются монотонно в порядке регистрации и живут
// до конца сессии (зонды не удаляются).
type ProbeID int

// NoFloor значение floorID, означающее отсутствие привязки к этажу
const NoFloor = -1

// WorldOwner значение ownerID для статических зондов, расставленных миром
const WorldOwner = -1

// Probe изменяемая запись одного зонда эссенции.
// Position, Color, Capacity, Density фиксируются при создании;
// мутируются только Remaining и LastUpdateTime.
type Probe struct {
	Position       vec.Vec3Float // Мировая позиция, неизменна после создания
	Color          Color         // Категория эссенции
	Remaining      float64       // Текущий запас, 0 <= Remaining <= Capacity
	Capacity       float64       // Максимальный запас, > 0
	Density        float64       // Множитель извлечения, > 0
	FloorID        int           // Этаж-перегородка; NoFloor = совпадает с любым фильтром
	OwnerID        int           // WorldOwner для статических зондов, иначе ID владеющей сущности
	LastUpdateTime float64       // Время последнего дрейна (монотонные секунды)
}

// HasRemaining сообщает, остался ли в зонде извлекаемый запас
func (p *Probe) HasRemaining() bool {
	return p.Remaining > Epsilon
}

// FillRatio возвращает долю заполненности зонда от 0 до 1
func (p *Probe) FillRatio() float64 {
	if p.Capacity <= 0 {
		return 0
	}
	return p.Remaining / p.Capacity
}
