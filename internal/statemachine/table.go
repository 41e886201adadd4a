// Package statemachine статическая таблица переходов жизненного цикла бронирования
// Таблица чистая: никакого I/O, guard-предикаты работают только над снапшотом
// контекста перехода. Действия над удержаниями слотов описаны декларативно
// (HoldAction) и исполняются оркестратором
package statemachine

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-LifecycleService/internal/domain"
)

// HoldAction действие над удержанием слота, сопровождающее переход
type HoldAction int

const (
	// HoldNone переход не трогает удержание
	HoldNone HoldAction = iota
	// HoldPlace разместить эксклюзивное удержание слота (DRAFT -> HOLD)
	HoldPlace
	// HoldConvert конвертировать удержание в постоянную бронь
	HoldConvert
	// HoldRelease освободить удержание, если оно ещё закреплено за бронированием
	HoldRelease
)

// GuardContext снапшот данных, доступных guard-предикату
// Guard не имеет права на мутации: все внешние чтения переданы явно
type GuardContext struct {
	Booking  *domain.Booking
	Actor    domain.Actor
	Metadata domain.Metadata
	Now      time.Time
}

// GuardFunc чистый предикат предусловия перехода
// Возвращает nil, если предусловие выполнено, иначе описание причины отказа
type GuardFunc func(gc GuardContext) error

// Rule правило перехода (from, event) -> to
type Rule struct {
	From  domain.BookingState
	Event domain.Event
	To    domain.BookingState
	Guard GuardFunc
	Hold  HoldAction
}

type ruleKey struct {
	from  domain.BookingState
	event domain.Event
}

// Table таблица переходов с поиском по (from, event)
type Table struct {
	rules   map[ruleKey]Rule
	byState map[domain.BookingState][]Rule
}

// New строит таблицу из стандартного набора правил жизненного цикла
func New() (*Table, error) {
	return newTable(defaultRules)
}

// MustNew строит таблицу и паникует при ошибке конфигурации
// Используется в composition root: битая таблица — это ошибка сборки, не рантайма
func MustNew() *Table {
	t, err := New()
	if err != nil {
		panic(err)
	}
	return t
}

func newTable(rules []Rule) (*Table, error) {
	t := &Table{
		rules:   make(map[ruleKey]Rule, len(rules)),
		byState: make(map[domain.BookingState][]Rule),
	}

	for _, rule := range rules {
		if !rule.From.IsValid() || !rule.To.IsValid() {
			return nil, fmt.Errorf("%w: %s -> %s on %s", ErrRuleInvalidState, rule.From, rule.To, rule.Event)
		}
		if rule.From.IsTerminal() {
			return nil, fmt.Errorf("%w: %s on %s", ErrRuleFromTerminal, rule.From, rule.Event)
		}

		key := ruleKey{from: rule.From, event: rule.Event}
		if _, exists := t.rules[key]; exists {
			return nil, fmt.Errorf("%w: (%s, %s)", ErrDuplicateRule, rule.From, rule.Event)
		}

		t.rules[key] = rule
		t.byState[rule.From] = append(t.byState[rule.From], rule)
	}

	return t, nil
}

// Resolve возвращает правило для пары (from, event)
func (t *Table) Resolve(from domain.BookingState, event domain.Event) (Rule, bool) {
	rule, ok := t.rules[ruleKey{from: from, event: event}]
	return rule, ok
}

// ValidTransitionsFrom возвращает все правила, исходящие из состояния
// Для терминальных состояний список пуст
func (t *Table) ValidTransitionsFrom(state domain.BookingState) []Rule {
	rules := t.byState[state]
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// AvailableEvents возвращает события, допустимые из состояния,
// в порядке объявления правил
func (t *Table) AvailableEvents(state domain.BookingState) []domain.Event {
	rules := t.byState[state]
	events := make([]domain.Event, 0, len(rules))
	for _, rule := range rules {
		events = append(events, rule.Event)
	}
	return events
}

// IsValid проверяет, что переход from -> to по событию event разрешён таблицей
func (t *Table) IsValid(from, to domain.BookingState, event domain.Event) bool {
	rule, ok := t.Resolve(from, event)
	return ok && rule.To == to
}

// Target возвращает целевое состояние для пары (from, event)
func (t *Table) Target(from domain.BookingState, event domain.Event) (domain.BookingState, bool) {
	rule, ok := t.Resolve(from, event)
	if !ok {
		return "", false
	}
	return rule.To, true
}
