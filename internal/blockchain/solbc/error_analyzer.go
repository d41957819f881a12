package solbc

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"go.uber.org/zap"
)

// ProgramError – ошибка on-chain программы, извлечённая из ответа RPC.
type ProgramError struct {
	Code int
	Name string
	Msg  string
	Err  error
}

func (e *ProgramError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("program error %d", e.Code)
	}
	if e.Msg == "" {
		return fmt.Sprintf("program error %d (%s)", e.Code, e.Name)
	}
	return fmt.Sprintf("program error %d (%s): %s", e.Code, e.Name, e.Msg)
}

func (e *ProgramError) Unwrap() error { return e.Err }

var (
	customErrRe = regexp.MustCompile(`custom program error: 0x([0-9a-fA-F]+)`)
	anchorLogRe = regexp.MustCompile(`Error Code: (\w+)\. Error Number: (\d+)\. Error Message: ([^.]*)`)
)

// ErrorAnalyzer распознаёт коды ошибок программы в ошибках отправки
type ErrorAnalyzer struct {
	logger *zap.Logger
	names  map[int]string
}

// NewErrorAnalyzer creates a new ErrorAnalyzer with a code → name table
func NewErrorAnalyzer(logger *zap.Logger, names map[int]string) *ErrorAnalyzer {
	return &ErrorAnalyzer{
		logger: logger.Named("error-analyzer"),
		names:  names,
	}
}

// Analyze возвращает *ProgramError, если err содержит код программы, иначе исходную ошибку.
func (ea *ErrorAnalyzer) Analyze(err error) error {
	if err == nil {
		return nil
	}

	var logs []string
	message := err.Error()

	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		message = rpcErr.Message
		logs = extractLogs(rpcErr.Data)
	}

	// AnchorError в логах симуляции содержит самое полное описание
	for _, line := range logs {
		if pe := ea.parseAnchorLog(line); pe != nil {
			pe.Err = err
			ea.logger.Warn("Anchor error detected",
				zap.Int("code", pe.Code),
				zap.String("name", pe.Name),
				zap.String("message", pe.Msg))
			return pe
		}
	}

	candidates := append([]string{message}, logs...)
	for _, text := range candidates {
		m := customErrRe.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		code, parseErr := strconv.ParseInt(m[1], 16, 32)
		if parseErr != nil {
			continue
		}
		pe := &ProgramError{Code: int(code), Name: ea.names[int(code)], Err: err}
		ea.logger.Warn("Custom program error detected",
			zap.Int("code", pe.Code),
			zap.String("name", pe.Name))
		return pe
	}

	return err
}

func (ea *ErrorAnalyzer) parseAnchorLog(line string) *ProgramError {
	if !strings.Contains(line, "AnchorError") {
		return nil
	}
	m := anchorLogRe.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	code, err := strconv.Atoi(m[2])
	if err != nil {
		return nil
	}
	name := m[1]
	if known, ok := ea.names[code]; ok {
		name = known
	}
	return &ProgramError{Code: code, Name: name, Msg: strings.TrimSpace(m[3])}
}

func extractLogs(data interface{}) []string {
	dataMap, ok := data.(map[string]interface{})
	if !ok {
		return nil
	}
	raw, ok := dataMap["logs"].([]interface{})
	if !ok {
		return nil
	}
	logs := make([]string, 0, len(raw))
	for _, entry := range raw {
		if s, ok := entry.(string); ok {
			logs = append(logs, s)
		}
	}
	return logs
}

// AnalyzeStatus разбирает поле err из getSignatureStatuses,
// например {"InstructionError":[2,{"Custom":6015}]}.
func (ea *ErrorAnalyzer) AnalyzeStatus(statusErr interface{}) error {
	if statusErr == nil {
		return nil
	}
	base := fmt.Errorf("transaction failed: %v", statusErr)

	dataMap, ok := statusErr.(map[string]interface{})
	if !ok {
		return base
	}
	pair, ok := dataMap["InstructionError"].([]interface{})
	if !ok || len(pair) != 2 {
		return base
	}
	detail, ok := pair[1].(map[string]interface{})
	if !ok {
		return base
	}
	code, ok := customCode(detail["Custom"])
	if !ok {
		return base
	}
	pe := &ProgramError{Code: code, Name: ea.names[code], Err: base}
	ea.logger.Warn("Custom program error in transaction status",
		zap.Int("code", pe.Code),
		zap.String("name", pe.Name))
	return pe
}

func customCode(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}
