// Package store は画面表示用の施設スナップショットキャッシュを提供する。
//
// サーバー確定済みのスナップショットと表示用の作業コピーを分けて持ち、
// 楽観的更新を作業コピーにだけ適用する。サーバーが失敗を返した場合は
// Rollbackで確定済みスナップショットへ巻き戻し、成功した場合は
// Confirmで再取得して整合させる。部分的な適用状態は外部から観測されない。
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/uniway/atlas/internal/model"
)

// ErrStaleRefresh は開始後にInvalidateされたRefreshの結果を破棄したことを示す。
var ErrStaleRefresh = errors.New("store: refresh result discarded as stale")

// Source はスナップショットの取得元。HTTP APIクライアントまたはテスト用フェイク。
type Source interface {
	FetchLocations(ctx context.Context) ([]*model.Location, error)
}

// Store は施設一覧のスナップショットを保持するクライアント側キャッシュ。
// 保持内容は常に取得時点のコピーであり、正とするのはサーバー側のデータ。
type Store struct {
	source Source

	mu         sync.RWMutex
	confirmed  []*model.Location // 最後にサーバーから取得した確定スナップショット
	current    []*model.Location // 楽観的更新を含む表示用スナップショット
	generation uint64            // Invalidateでインクリメント。古いRefresh結果を落とす
}

// NewStore はStoreを生成する。スナップショットは空の状態から始まる。
func NewStore(source Source) *Store {
	return &Store{source: source}
}

// Refresh はSourceからスナップショットを取得し、確定・表示の両方を置き換える。
// 取得開始後にInvalidateが呼ばれていた場合、結果は適用せずErrStaleRefreshを返す。
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.RLock()
	startGen := s.generation
	s.mu.RUnlock()

	locs, err := s.source.FetchLocations(ctx)
	if err != nil {
		return fmt.Errorf("スナップショットの取得に失敗しました: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != startGen {
		// 取得中に画面遷移などで無効化された。遅延レスポンスは捨てる
		return ErrStaleRefresh
	}

	s.confirmed = cloneLocations(locs)
	s.current = cloneLocations(locs)
	return nil
}

// Invalidate は進行中のRefresh結果を無効化する。画面遷移やログアウトで呼ぶ。
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
}

// Snapshot は表示用スナップショットのコピーを返す。
func (s *Store) Snapshot() []*model.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneLocations(s.current)
}

// Get は表示用スナップショットから施設を検索する。
func (s *Store) Get(locationID int) (*model.Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, loc := range s.current {
		if loc.LocationID == locationID {
			c := *loc
			return &c, true
		}
	}
	return nil, false
}

// Len は表示用スナップショットの件数を返す。
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.current)
}

// OptimisticCreate は施設を表示用スナップショットにだけ追加する。
// サーバー確定前の仮表示。確定はConfirm、失敗時はRollbackで取り消す。
func (s *Store) OptimisticCreate(loc *model.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *loc
	s.current = append(s.current, &c)
}

// OptimisticUpdate は表示用スナップショット内の施設を置き換える。
// 該当する施設がない場合はfalseを返し、何も変更しない。
func (s *Store) OptimisticUpdate(updated *model.Location) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, loc := range s.current {
		if loc.LocationID == updated.LocationID {
			c := *updated
			s.current[i] = &c
			return true
		}
	}
	return false
}

// OptimisticDelete は表示用スナップショットから施設を取り除く。
// 該当する施設がない場合はfalseを返し、何も変更しない。
func (s *Store) OptimisticDelete(locationID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, loc := range s.current {
		if loc.LocationID == locationID {
			s.current = append(s.current[:i], s.current[i+1:]...)
			return true
		}
	}
	return false
}

// Rollback は楽観的更新をすべて破棄し、最後の確定スナップショットに戻す。
func (s *Store) Rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = cloneLocations(s.confirmed)
}

// Confirm はサーバーの確定応答を受けて再取得し、スナップショットを整合させる。
// 楽観的更新の結果ではなくサーバーの状態を正とする。
func (s *Store) Confirm(ctx context.Context) error {
	return s.Refresh(ctx)
}

// cloneLocations はスナップショットの深いコピーを作る。
// 呼び出し側の保持する参照と内部状態を切り離す。
func cloneLocations(locs []*model.Location) []*model.Location {
	cloned := make([]*model.Location, len(locs))
	for i, loc := range locs {
		c := *loc
		cloned[i] = &c
	}
	return cloned
}
