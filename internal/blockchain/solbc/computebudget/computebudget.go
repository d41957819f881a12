// internal/blockchain/solbc/computebudget/computebudget.go
package computebudget

import (
	"github.com/gagliardetto/solana-go"
	cbprogram "github.com/gagliardetto/solana-go/programs/compute-budget"
)

// Предопределенные профили
const (
	DefaultUnits  uint32 = 200_000
	StandardUnits uint32 = 400_000
	MigrateUnits  uint32 = 600_000
	// MaxUnits – предел рантайма на одну транзакцию
	MaxUnits uint32 = 1_400_000

	HarvestBaseUnits      uint32 = 100_000
	HarvestPerSourceUnits uint32 = 20_000
)

// Config содержит конфигурацию бюджета для транзакции
type Config struct {
	Units uint32
	// UnitPrice в микролампортах; 0 – без приоритетной комиссии
	UnitPrice uint64
}

// ForHarvest масштабирует лимит по числу аккаунтов-источников комиссий.
func ForHarvest(sources int, unitPrice uint64) Config {
	units := uint64(HarvestBaseUnits) + uint64(HarvestPerSourceUnits)*uint64(max(sources, 0))
	if units > uint64(MaxUnits) {
		units = uint64(MaxUnits)
	}
	return Config{Units: uint32(units), UnitPrice: unitPrice}
}

// BuildInstructions создает инструкции для настройки бюджета
func BuildInstructions(config Config) []solana.Instruction {
	if config.Units == 0 {
		config.Units = DefaultUnits
	}
	if config.Units > MaxUnits {
		config.Units = MaxUnits
	}

	instructions := []solana.Instruction{
		cbprogram.NewSetComputeUnitLimitInstruction(config.Units).Build(),
	}
	if config.UnitPrice > 0 {
		instructions = append(instructions,
			cbprogram.NewSetComputeUnitPriceInstruction(config.UnitPrice).Build())
	}
	return instructions
}
