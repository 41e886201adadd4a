package statemachine

import "errors"

var (
	// ErrDuplicateRule возвращается при двух правилах с одинаковой парой (from, event)
	// Это ошибка конфигурации таблицы, обнаруживается при её построении
	ErrDuplicateRule = errors.New("statemachine: duplicate rule for (state, event) pair")

	// ErrRuleFromTerminal возвращается при правиле, исходящем из терминального состояния
	ErrRuleFromTerminal = errors.New("statemachine: rule leaving a terminal state")

	// ErrRuleInvalidState возвращается при правиле с неизвестным состоянием
	ErrRuleInvalidState = errors.New("statemachine: rule references unknown state")
)
