package domain

import "errors"

// Единая таксономия ошибок ядра: обёртки сохраняют вид через %w,
// вызывающая сторона различает их errors.Is.
var (
	// ErrNotFound — сущность отсутствует.
	ErrNotFound = errors.New("сущность не найдена")
	// ErrConflict — нарушение уникальности: повторный лайк, занятое имя пользователя.
	ErrConflict = errors.New("конфликт уникальности")
	// ErrForbidden — вызывающий не владеет сущностью.
	ErrForbidden = errors.New("операция запрещена")
	// ErrInvalid — некорректный ввод: пустой контент, отрицательная пагинация.
	ErrInvalid = errors.New("некорректные данные")
	// ErrStoreUnavailable — сбой хранилища, не связанный с вызывающим.
	ErrStoreUnavailable = errors.New("хранилище недоступно")
)
