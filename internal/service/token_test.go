package service

import (
	"encoding/hex"
	"strings"
	"testing"
)

// TestNewUniqueCode проверяет формат публичного кода ссылки.
func TestNewUniqueCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := newUniqueCode()
		if err != nil {
			t.Fatalf("newUniqueCode: %v", err)
		}
		if len(code) != codeLength {
			t.Errorf("длина кода %d, ожидалось %d: %q", len(code), codeLength, code)
		}
		for _, r := range code {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Errorf("символ %q вне алфавита кода: %q", r, code)
			}
		}
		seen[code] = true
	}
	// 200 кодов из пространства 36^8 — коллизии быть не должно
	if len(seen) != 200 {
		t.Errorf("сгенерировано %d уникальных кодов из 200", len(seen))
	}
}

// TestNewDownloadToken проверяет формат токена скачивания: 64 hex-символа.
func TestNewDownloadToken(t *testing.T) {
	a, err := newDownloadToken()
	if err != nil {
		t.Fatalf("newDownloadToken: %v", err)
	}
	if len(a) != downloadTokenBytes*2 {
		t.Errorf("длина токена %d, ожидалось %d", len(a), downloadTokenBytes*2)
	}
	if _, err := hex.DecodeString(a); err != nil {
		t.Errorf("токен не hex: %q", a)
	}

	b, err := newDownloadToken()
	if err != nil {
		t.Fatalf("newDownloadToken: %v", err)
	}
	if a == b {
		t.Error("два последовательных токена совпали")
	}
}
