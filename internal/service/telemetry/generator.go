package telemetry

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"flipperdeck/internal/domain/models"
)

// Generator выдает демонстрационную телеметрию. Настоящих данных с устройства нет.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator создает генератор со случайным источником.
func NewGenerator() *Generator {
	return NewGeneratorWithSource(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// NewGeneratorWithSource создает генератор с заданным источником (для тестов).
func NewGeneratorWithSource(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// Demo возвращает строки телеметрии демо-режима:
// заряд 70..99%, канал 300..339 МГц.
func (g *Generator) Demo() []models.TelemetryRow {
	g.mu.Lock()
	battery := g.rnd.IntN(30) + 70
	channel := g.rnd.IntN(40) + 300
	g.mu.Unlock()

	return []models.TelemetryRow{
		{Label: "Battery", Value: fmt.Sprintf("%d%%", battery)},
		{Label: "Mode", Value: "Demo Ops"},
		{Label: "Channel", Value: fmt.Sprintf("%d MHz", channel)},
		{Label: "Last Script", Value: "Signal Sweep"},
	}
}
