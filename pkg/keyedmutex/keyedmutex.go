// Package keyedmutex мьютексы по строковому ключу
// Используется для сериализации операций над одним bookingId внутри процесса
package keyedmutex

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyedMutex выдает мьютекс на строковый ключ
// Записи создаются лениво и удаляются, когда последний владелец отпускает ключ
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New создает новый KeyedMutex
func New() *KeyedMutex {
	return &KeyedMutex{
		entries: make(map[string]*entry),
	}
}

// Lock блокирует ключ и возвращает функцию разблокировки
//
//	unlock := km.Lock(bookingID)
//	defer unlock()
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
