package core

import (
	"slices"
	"sync"
)

// ModelInfo represents a single model entry in the models list.
type ModelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// ModelListResponse is the OpenAI-compatible model list response.
type ModelListResponse struct {
	Object string      `json:"object"`
	Data   []ModelInfo `json:"data"`
}

// ModelsConfig holds the allow-list mapping loaded from allowed_models.json.
type ModelsConfig struct {
	Models map[string]string `json:"models"`
}

// ModelList is the advertised list of image-generation model IDs.
// Holders of a *ModelList always observe the latest contents; Replace swaps
// them in a single critical section so readers never see an empty list.
type ModelList struct {
	mu  sync.RWMutex
	ids []string
}

// NewModelList creates a list holding a copy of ids.
func NewModelList(ids ...string) *ModelList {
	return &ModelList{ids: slices.Clone(ids)}
}

// Replace swaps the list contents for a copy of ids.
func (l *ModelList) Replace(ids []string) {
	next := slices.Clone(ids)
	l.mu.Lock()
	l.ids = next
	l.mu.Unlock()
}

// Snapshot returns a copy of the current contents.
func (l *ModelList) Snapshot() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.ids)
}

// Len returns the number of advertised IDs.
func (l *ModelList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.ids)
}

// Contains reports whether id is currently advertised.
func (l *ModelList) Contains(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Contains(l.ids, id)
}

// AllowList is an immutable set of model IDs that may be advertised.
// Membership is exact string equality.
type AllowList struct {
	ids map[string]struct{}
}

// NewAllowList builds an allow-list from ids. Empty strings are ignored.
func NewAllowList(ids ...string) AllowList {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return AllowList{ids: set}
}

// Contains reports whether id is allow-listed.
func (a AllowList) Contains(id string) bool {
	_, ok := a.ids[id]
	return ok
}

// Len returns the number of allow-listed IDs.
func (a AllowList) Len() int {
	return len(a.ids)
}

// IDs returns the allow-listed IDs in sorted order.
func (a AllowList) IDs() []string {
	ids := make([]string, 0, len(a.ids))
	for id := range a.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
