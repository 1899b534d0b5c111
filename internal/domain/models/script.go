package models

import (
	"errors"
	"strings"
)

// ErrUnknownCategory возвращается при разборе неизвестной категории каталога.
var ErrUnknownCategory = errors.New("models: unknown script category")

// Category категория набора скриптов
type Category string

const (
	CategoryAll      Category = "all" // Псевдокатегория, совпадает с любой
	CategoryBadUSB   Category = "badusb"
	CategorySubGHz   Category = "subghz"
	CategoryNFC      Category = "nfc"
	CategoryInfrared Category = "infrared"
	CategoryRFID     Category = "rfid"
)

// Categories возвращает все реальные категории в порядке отображения (без "all").
func Categories() []Category {
	return []Category{CategoryBadUSB, CategorySubGHz, CategoryNFC, CategoryInfrared, CategoryRFID}
}

// ParseCategory разбирает имя категории без учета регистра.
// Пустая строка означает "all".
func ParseCategory(s string) (Category, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" || name == string(CategoryAll) {
		return CategoryAll, nil
	}
	for _, c := range Categories() {
		if string(c) == name {
			return c, nil
		}
	}
	return "", ErrUnknownCategory
}

// Matches проверяет, подходит ли категория под выбранный фильтр.
func (c Category) Matches(filter Category) bool {
	return filter == CategoryAll || filter == "" || c == filter
}

// ScriptEntry описывает набор скриптов в каталоге. Создается при старте и не изменяется.
type ScriptEntry struct {
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
	Path        string   `json:"path"`
}
