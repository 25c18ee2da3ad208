// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrInvalidState — операция недопустима в текущем статусе сущности.
	// Обёртки всегда называют фактический статус.
	ErrInvalidState = errors.New("недопустимый статус")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
)
