// Package search は施設スナップショットに対する検索とサジェストを提供する。
package search

import (
	"encoding/json"
	"fmt"
	"sync"
)

// KeyValue は閲覧履歴の永続化先。
// ブラウザのローカルストレージ相当を差し替え可能にするための抽象化。
type KeyValue interface {
	// Get はキーに対応する値を返す。存在しない場合はfalseを返す。
	Get(key string) (string, bool)
	// Set はキーに値を保存する。
	Set(key, value string) error
}

// recentsKey は閲覧履歴の保存キー。
const recentsKey = "atlas:recent_locations"

// RecencyList は最近閲覧した施設IDの有界リスト。
// 最新が先頭、同じIDは1つだけ、容量を超えた分は末尾から落ちる。
type RecencyList struct {
	storage  KeyValue
	capacity int

	mu  sync.Mutex
	ids []int
}

// NewRecencyList はRecencyListを生成し、storageから前回の内容を復元する。
// 保存データが壊れている場合は空のリストから始める。
func NewRecencyList(storage KeyValue, capacity int) *RecencyList {
	rl := &RecencyList{
		storage:  storage,
		capacity: capacity,
	}

	if raw, ok := storage.Get(recentsKey); ok {
		var ids []int
		if err := json.Unmarshal([]byte(raw), &ids); err == nil {
			if len(ids) > capacity {
				ids = ids[:capacity]
			}
			rl.ids = ids
		}
	}

	return rl
}

// Record は施設の閲覧を記録する。既に記録済みの場合は先頭に移動する。
func (rl *RecencyList) Record(locationID int) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// 既存の同一IDを取り除く
	next := make([]int, 0, rl.capacity)
	next = append(next, locationID)
	for _, id := range rl.ids {
		if id == locationID {
			continue
		}
		next = append(next, id)
	}
	if len(next) > rl.capacity {
		next = next[:rl.capacity]
	}
	rl.ids = next

	return rl.persist()
}

// IDs は最近閲覧した施設IDを新しい順で返す。
func (rl *RecencyList) IDs() []int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	out := make([]int, len(rl.ids))
	copy(out, rl.ids)
	return out
}

// persist は現在のリストをstorageに保存する。ロックを保持して呼ぶこと。
func (rl *RecencyList) persist() error {
	raw, err := json.Marshal(rl.ids)
	if err != nil {
		return fmt.Errorf("閲覧履歴のシリアライズに失敗しました: %w", err)
	}
	if err := rl.storage.Set(recentsKey, string(raw)); err != nil {
		return fmt.Errorf("閲覧履歴の保存に失敗しました: %w", err)
	}
	return nil
}

// MemoryKeyValue はメモリ上のKeyValue実装。テストや履歴永続化が不要な場合に使う。
type MemoryKeyValue struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKeyValue はMemoryKeyValueを生成する。
func NewMemoryKeyValue() *MemoryKeyValue {
	return &MemoryKeyValue{data: make(map[string]string)}
}

// Get はキーに対応する値を返す。
func (m *MemoryKeyValue) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

// Set はキーに値を保存する。
func (m *MemoryKeyValue) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// compile-time interface check
var _ KeyValue = (*MemoryKeyValue)(nil)
