package ports

import "github.com/vshulcz/enginestats/internal/domain"

// EngineRegistry lists the engines whose statistics are tracked.
type EngineRegistry interface {
	Engines() []domain.Engine
}

// Translator resolves an English message id into a localized label.
type Translator interface {
	T(msg string) string
}
