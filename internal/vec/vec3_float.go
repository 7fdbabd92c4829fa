package vec

// Vec3Float представляет трехмерный вектор с плавающими координатами.
// Ось Y направлена вверх; пространственные запросы поля работают в плоскости XZ.
type Vec3Float struct {
	X float64
	Y float64
	Z float64
}

// XZ возвращает проекцию вектора на плоскость XZ
func (v Vec3Float) XZ() Vec2Float {
	return Vec2Float{X: v.X, Y: v.Z}
}

// Add складывает два вектора
func (v Vec3Float) Add(other Vec3Float) Vec3Float {
	return Vec3Float{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// DistanceXZTo возвращает расстояние до другой точки в плоскости XZ
func (v Vec3Float) DistanceXZTo(other Vec3Float) float64 {
	return v.XZ().DistanceTo(other.XZ())
}

// DistanceXZSqTo возвращает квадрат расстояния в плоскости XZ
func (v Vec3Float) DistanceXZSqTo(other Vec3Float) float64 {
	return v.XZ().DistanceSqTo(other.XZ())
}
