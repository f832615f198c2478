package search

import (
	"strings"

	"github.com/uniway/atlas/internal/model"
)

// MaxResults は検索結果・サジェストの最大件数。
const MaxResults = 5

// SnapshotProvider は検索対象のスナップショットを供給する。
// store.Storeがこのインターフェースを満たす。
type SnapshotProvider interface {
	Snapshot() []*model.Location
}

// Engine は現在のスナップショットに対する検索とサジェストを提供する。
// 結果は常にスナップショットに存在する施設だけから構成される。
type Engine struct {
	snapshots SnapshotProvider
	recents   *RecencyList
}

// NewEngine はEngineを生成する。
func NewEngine(snapshots SnapshotProvider, recents *RecencyList) *Engine {
	return &Engine{
		snapshots: snapshots,
		recents:   recents,
	}
}

// Search は施設名とカテゴリに対する大文字小文字を区別しない部分一致検索を行う。
// スナップショット順で最大MaxResults件を返す。
// 空クエリの場合はSuggestに委譲する。
func (e *Engine) Search(query string) []*model.Location {
	query = strings.TrimSpace(query)
	if query == "" {
		return e.Suggest()
	}

	needle := strings.ToLower(query)
	results := make([]*model.Location, 0, MaxResults)

	for _, loc := range e.snapshots.Snapshot() {
		if len(results) >= MaxResults {
			break
		}
		if strings.Contains(strings.ToLower(loc.Name), needle) ||
			strings.Contains(strings.ToLower(loc.Category), needle) {
			results = append(results, loc)
		}
	}

	return results
}

// Suggest は検索欄フォーカス時のサジェストを返す。
// 最近閲覧した施設を新しい順に出し、枠が余ればスナップショット先頭から補完する。
// いずれもスナップショットに現存する施設のみ。最大MaxResults件。
func (e *Engine) Suggest() []*model.Location {
	snapshot := e.snapshots.Snapshot()

	byID := make(map[int]*model.Location, len(snapshot))
	for _, loc := range snapshot {
		byID[loc.LocationID] = loc
	}

	results := make([]*model.Location, 0, MaxResults)
	seen := make(map[int]bool, MaxResults)

	// 1. 閲覧履歴から。スナップショットに存在しないIDは読み飛ばす
	for _, id := range e.recents.IDs() {
		if len(results) >= MaxResults {
			return results
		}
		loc, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		results = append(results, loc)
		seen[id] = true
	}

	// 2. 枠が余ればスナップショット順で補完
	for _, loc := range snapshot {
		if len(results) >= MaxResults {
			break
		}
		if seen[loc.LocationID] {
			continue
		}
		results = append(results, loc)
		seen[loc.LocationID] = true
	}

	return results
}

// RecordVisit は施設詳細の閲覧を記録し、以後のサジェストに反映させる。
func (e *Engine) RecordVisit(locationID int) error {
	return e.recents.Record(locationID)
}
