// Package geometry переводит экранные смещения указателя в проценты слайда
// независимо от масштаба отображения.
package geometry

import "math"

// MinElementSize - нижняя граница ширины/высоты элемента в процентах.
const MinElementSize = 5.0

// Viewport описывает холст слайда так, как его измерил клиент:
// Width/Height - размер контейнера в пикселях, Scale - коэффициент
// отображения (1.0 - натуральный размер).
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Scale  float64 `json:"scale"`
}

// DefaultViewport - холст 16:9 в натуральном размере.
func DefaultViewport() Viewport {
	return Viewport{Width: 1280, Height: 720, Scale: 1}
}

// Valid проверяет, что размеры конечны и положительны.
func (v Viewport) Valid() bool {
	return Finite(v.Width) && Finite(v.Height) && v.Width > 0 && v.Height > 0
}

// EffectiveScale возвращает масштаб, заменяя нулевой, отрицательный или
// нечисловой коэффициент на 1.
func (v Viewport) EffectiveScale() float64 {
	if !Finite(v.Scale) || v.Scale <= 0 {
		return 1
	}
	return v.Scale
}

// LogicalSize - размер холста без масштаба.
func (v Viewport) LogicalSize() (w, h float64) {
	s := v.EffectiveScale()
	return v.Width / s, v.Height / s
}

// ToPercentDelta переводит смещение указателя в экранных пикселях в смещение
// в процентах слайда. Смещение сначала приводится к логическим пикселям
// (деление на масштаб) и нормируется по логическому размеру холста, поэтому
// результат не зависит от масштаба.
func (v Viewport) ToPercentDelta(dxScreen, dyScreen float64) (dxPct, dyPct float64) {
	s := v.EffectiveScale()
	lw, lh := v.LogicalSize()
	return percentOf(dxScreen/s, lw), percentOf(dyScreen/s, lh)
}

// ToScreenDelta - обратное преобразование.
func (v Viewport) ToScreenDelta(dxPct, dyPct float64) (dxScreen, dyScreen float64) {
	s := v.EffectiveScale()
	lw, lh := v.LogicalSize()
	return finiteOrZero(dxPct / 100 * lw * s), finiteOrZero(dyPct / 100 * lh * s)
}

// ClampMin возвращает value, но не меньше floor. Нечисловое значение даёт floor.
func ClampMin(value, floor float64) float64 {
	if !Finite(value) || value < floor {
		return floor
	}
	return value
}

// Finite сообщает, что число не NaN и не бесконечность.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func percentOf(delta, size float64) float64 {
	if !Finite(size) || size <= 0 {
		return 0
	}
	return finiteOrZero(delta / size * 100)
}

func finiteOrZero(v float64) float64 {
	if !Finite(v) {
		return 0
	}
	return v
}
