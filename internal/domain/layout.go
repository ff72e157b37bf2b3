package domain

import "strings"

// Layout задаёт семантический шаблон слайда.
// Набор значений закрыт, но неизвестные строки сохраняются как есть,
// чтобы гидратор мог отрисовать их шаблоном по умолчанию.
type Layout string

const (
	LayoutTitle        Layout = "TITLE"
	LayoutContentLeft  Layout = "CONTENT_LEFT"
	LayoutContentRight Layout = "CONTENT_RIGHT"
	LayoutBullets      Layout = "BULLETS"
	LayoutQuote        Layout = "QUOTE"
	LayoutData         Layout = "DATA"
	LayoutProcess      Layout = "PROCESS"
)

var knownLayouts = []Layout{
	LayoutTitle,
	LayoutContentLeft,
	LayoutContentRight,
	LayoutBullets,
	LayoutQuote,
	LayoutData,
	LayoutProcess,
}

// Layouts возвращает все известные шаблоны в порядке объявления.
func Layouts() []Layout {
	out := make([]Layout, len(knownLayouts))
	copy(out, knownLayouts)
	return out
}

// ParseLayout нормализует строку из ответа генератора.
// Регистр и пробелы не важны, дефисы приравниваются к подчёркиваниям.
func ParseLayout(s string) Layout {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", "_")
	norm = strings.ReplaceAll(norm, " ", "_")
	return Layout(norm)
}

// Known сообщает, входит ли значение в перечисление.
func (l Layout) Known() bool {
	for _, k := range knownLayouts {
		if l == k {
			return true
		}
	}
	return false
}

func (l Layout) String() string { return string(l) }
