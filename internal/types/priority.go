// internal/types/priority.go
package types

import (
	"fmt"
	"strings"
)

// PriorityLevel – именованный профиль цены compute unit.
type PriorityLevel string

const (
	PriorityNone    PriorityLevel = "none"
	PriorityLow     PriorityLevel = "low"
	PriorityMedium  PriorityLevel = "medium"
	PriorityHigh    PriorityLevel = "high"
	PriorityExtreme PriorityLevel = "extreme"
)

// цена в микролампортах за compute unit
var priorityUnitPrices = map[PriorityLevel]uint64{
	PriorityNone:    0,
	PriorityLow:     1_000,
	PriorityMedium:  5_000,
	PriorityHigh:    10_000,
	PriorityExtreme: 50_000,
}

// ParsePriorityLevel разбирает уровень без учёта регистра; пустая строка – PriorityNone.
func ParsePriorityLevel(s string) (PriorityLevel, error) {
	level := PriorityLevel(strings.ToLower(strings.TrimSpace(s)))
	if level == "" {
		return PriorityNone, nil
	}
	if _, ok := priorityUnitPrices[level]; !ok {
		return "", fmt.Errorf("unknown priority level: %s", s)
	}
	return level, nil
}

// UnitPrice возвращает цену compute unit для уровня.
func (l PriorityLevel) UnitPrice() uint64 {
	return priorityUnitPrices[l]
}
