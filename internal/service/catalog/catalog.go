package catalog

import (
	"strings"

	"flipperdeck/internal/domain/models"
)

// DefaultEntries фиксированный каталог наборов скриптов.
func DefaultEntries() []models.ScriptEntry {
	return []models.ScriptEntry{
		{
			Name:        "Credential Harvester",
			Category:    models.CategoryBadUSB,
			Description: "BadUSB payloads for credential prompts and phishing flows.",
			Path:        "../BadUSB",
		},
		{
			Name:        "Remote Capture Kits",
			Category:    models.CategorySubGHz,
			Description: "Signal scripts for Sub-GHz capture, replay, and analysis.",
			Path:        "../Sub-GHz",
		},
		{
			Name:        "NFC Fun Files",
			Category:    models.CategoryNFC,
			Description: "NFC tags, MIFARE tools, and dictionaries.",
			Path:        "../NFC",
		},
		{
			Name:        "Infrared Remote Library",
			Category:    models.CategoryInfrared,
			Description: "IR device databases and Pronto conversions.",
			Path:        "../Infrared",
		},
		{
			Name:        "RFID Stash",
			Category:    models.CategoryRFID,
			Description: "RFID dumps, tags, and reader utilities.",
			Path:        "../RFID",
		},
		{
			Name:        "GPIO Playbook",
			Category:    models.CategoryBadUSB,
			Description: "Signal wiring guides and GPIO experiments.",
			Path:        "../GPIO",
		},
	}
}

// Render отбирает записи выбранной категории, у которых имя или описание
// содержит query без учета регистра. Порядок каталога сохраняется.
func Render(entries []models.ScriptEntry, query string, category models.Category) []models.ScriptEntry {
	q := strings.ToLower(query)
	result := make([]models.ScriptEntry, 0, len(entries))
	for _, e := range entries {
		if !e.Category.Matches(category) {
			continue
		}
		if strings.Contains(strings.ToLower(e.Name), q) || strings.Contains(strings.ToLower(e.Description), q) {
			result = append(result, e)
		}
	}
	return result
}

// Catalog неизменяемый список записей.
type Catalog struct {
	entries []models.ScriptEntry
}

// New создает каталог из копии entries.
func New(entries []models.ScriptEntry) *Catalog {
	c := &Catalog{entries: make([]models.ScriptEntry, len(entries))}
	copy(c.entries, entries)
	return c
}

// NewDefault каталог с DefaultEntries
func NewDefault() *Catalog {
	return New(DefaultEntries())
}

func (c *Catalog) Entries() []models.ScriptEntry {
	result := make([]models.ScriptEntry, len(c.entries))
	copy(result, c.entries)
	return result
}

func (c *Catalog) Render(query string, category models.Category) []models.ScriptEntry {
	return Render(c.entries, query, category)
}

// Categories возвращает "all" и все категории, встречающиеся в каталоге, в порядке models.Categories.
func (c *Catalog) Categories() []models.Category {
	present := make(map[models.Category]bool)
	for _, e := range c.entries {
		present[e.Category] = true
	}
	result := []models.Category{models.CategoryAll}
	for _, cat := range models.Categories() {
		if present[cat] {
			result = append(result, cat)
		}
	}
	return result
}
