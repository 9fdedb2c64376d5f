package handler

import "sync"

const dedupWindow = 1024

// Память последних update_id: платформа повторяет доставку,
// пока не получит подтверждение, и повтор может прийти
// раньше завершения обработки первого экземпляра

type updateDedup struct {
	mu    sync.Mutex
	seen  map[int64]struct{}
	order []int64
	limit int
}

func newUpdateDedup(limit int) *updateDedup {
	return &updateDedup{
		seen:  make(map[int64]struct{}, limit),
		limit: limit,
	}
}

// Seen отмечает id и отвечает, встречался ли он в окне
func (dedup *updateDedup) Seen(id int64) bool {
	dedup.mu.Lock()
	defer dedup.mu.Unlock()

	if _, ok := dedup.seen[id]; ok {
		return true
	}
	dedup.seen[id] = struct{}{}
	dedup.order = append(dedup.order, id)
	if len(dedup.order) > dedup.limit {
		delete(dedup.seen, dedup.order[0])
		dedup.order = dedup.order[1:]
	}
	return false
}
