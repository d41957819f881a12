// =============================
// File: internal/dex/market/instructions.go
// =============================
package market

import (
	"github.com/gagliardetto/solana-go"
)

func writable(pk solana.PublicKey) *solana.AccountMeta {
	return solana.NewAccountMeta(pk, true, false)
}

func readonly(pk solana.PublicKey) *solana.AccountMeta {
	return solana.NewAccountMeta(pk, false, false)
}

func signer(pk solana.PublicKey) *solana.AccountMeta {
	return solana.NewAccountMeta(pk, true, true)
}

// createATAIdempotent – инструкция CreateIdempotent ассоциированного аккаунта (data = {1}).
// Повторное выполнение для существующего аккаунта не падает.
func createATAIdempotent(payer, owner, mint, tokenProgram solana.PublicKey) solana.Instruction {
	ata := AssociatedTokenAddress(owner, mint, tokenProgram)
	return solana.NewInstruction(
		AssociatedTokenProgramID,
		[]*solana.AccountMeta{
			signer(payer),
			writable(ata),
			readonly(owner),
			readonly(mint),
			readonly(solana.SystemProgramID),
			readonly(tokenProgram),
		},
		[]byte{1},
	)
}

// memoInstruction – memo подписывается отправителем.
func memoInstruction(author solana.PublicKey, message string) solana.Instruction {
	return solana.NewInstruction(
		MemoProgramID,
		[]*solana.AccountMeta{solana.NewAccountMeta(author, false, true)},
		[]byte(message),
	)
}

// plan – упорядоченный список инструкций одной транзакции:
// бюджет → idempotent create → пополнение → основная инструкция → memo.
type plan struct {
	budget  []solana.Instruction
	creates []solana.Instruction
	funding []solana.Instruction
	primary []solana.Instruction
	memo    []solana.Instruction
}

func (p *plan) instructions() []solana.Instruction {
	out := make([]solana.Instruction, 0,
		len(p.budget)+len(p.creates)+len(p.funding)+len(p.primary)+len(p.memo))
	out = append(out, p.budget...)
	out = append(out, p.creates...)
	out = append(out, p.funding...)
	out = append(out, p.primary...)
	out = append(out, p.memo...)
	return out
}
