// =============================
// File: internal/dex/market/vanity.go
// =============================
package market

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

type keyGenerator func() (solana.PrivateKey, error)

// generateVanity ищет ключ, адрес которого оканчивается на suffix.
// Цикл ограничен attempts; при исчерпании возвращается последний сгенерированный ключ.
// Суффикс косметический, на корректность не влияет.
func generateVanity(gen keyGenerator, suffix string, attempts int) (solana.PrivateKey, int, error) {
	if attempts < 1 {
		attempts = 1
	}

	var key solana.PrivateKey
	for i := 1; i <= attempts; i++ {
		var err error
		key, err = gen()
		if err != nil {
			return nil, i, fmt.Errorf("failed to generate keypair: %w", err)
		}
		if suffix == "" || strings.HasSuffix(key.PublicKey().String(), suffix) {
			return key, i, nil
		}
	}
	return key, attempts, nil
}
