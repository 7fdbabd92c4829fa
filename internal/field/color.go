package field

import "fmt"

// Color представляет дискретную категорию эссенции, хранимой зондом
type Color uint8

const (
	ColorRed Color = iota
	ColorOrange
	ColorYellow
	ColorGreen
	ColorBlue
	ColorViolet
)

// ColorCount количество категорий эссенции
const ColorCount = 6

// String возвращает строковое представление цвета
func (c Color) String() string {
	switch c {
	case ColorRed:
		return "red"
	case ColorOrange:
		return "orange"
	case ColorYellow:
		return "yellow"
	case ColorGreen:
		return "green"
	case ColorBlue:
		return "blue"
	case ColorViolet:
		return "violet"
	default:
		return fmt.Sprintf("color(%d)", uint8(c))
	}
}

// ParseColor разбирает строковое имя цвета
func ParseColor(s string) (Color, error) {
	switch s {
	case "red":
		return ColorRed, nil
	case "orange":
		return ColorOrange, nil
	case "yellow":
		return ColorYellow, nil
	case "green":
		return ColorGreen, nil
	case "blue":
		return ColorBlue, nil
	case "violet":
		return ColorViolet, nil
	default:
		return 0, fmt.Errorf("неизвестный цвет эссенции: %q", s)
	}
}
