// token.go — генерация публичных кодов ссылок и токенов скачивания.
// Оба значения — криптослучайные: код ссылки попадает в URL и письма,
// токен скачивания заменяет аутентификацию покупателя.
package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// codeAlphabet — алфавит публичного кода: латиница в верхнем регистре и цифры.
// 36^8 ≈ 2.8e12 вариантов, коллизии практически исключены; на случай
// совпадения вставка повторяется (см. retry в Generate).
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// codeLength — длина публичного кода ссылки.
const codeLength = 8

// downloadTokenBytes — размер токена скачивания до hex-кодирования.
// 32 байта → 64 hex-символа.
const downloadTokenBytes = 32

// newUniqueCode генерирует публичный код ссылки.
// Выборка по остатку без смещения: 252 — наибольшее кратное 36 в байте,
// значения выше отбрасываются.
func newUniqueCode() (string, error) {
	code := make([]byte, 0, codeLength)
	buf := make([]byte, codeLength)

	for len(code) < codeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("ошибка генерации кода: %w", err)
		}
		for _, b := range buf {
			if len(code) == codeLength {
				break
			}
			if b >= 252 {
				continue
			}
			code = append(code, codeAlphabet[int(b)%len(codeAlphabet)])
		}
	}

	return string(code), nil
}

// newDownloadToken генерирует токен скачивания: 32 криптослучайных байта
// в hex-представлении (64 символа).
func newDownloadToken() (string, error) {
	buf := make([]byte, downloadTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("ошибка генерации токена: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
