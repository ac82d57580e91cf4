package service

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Vishnulak/PRELEX-GENAI/config"
	"github.com/Vishnulak/PRELEX-GENAI/model"
)

// AnalysisStore keeps recent analyses in memory. Nothing survives a restart.
type AnalysisStore struct {
	docs        map[string]*model.Document
	mu          sync.RWMutex
	maxAnalyses int // 0 = unlimited
}

func NewAnalysisStore(cfg *config.StoreConfig) *AnalysisStore {
	maxAnalyses := cfg.MaxAnalyses
	if maxAnalyses < 0 {
		maxAnalyses = 0
	}
	slog.Info("analysis store initialized", "max_analyses", maxAnalyses)
	return &AnalysisStore{
		docs:        make(map[string]*model.Document),
		maxAnalyses: maxAnalyses,
	}
}

func (s *AnalysisStore) Save(doc *model.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc.UpdatedAt = time.Now()
	s.docs[doc.ID] = doc
	s.evictIfNeeded()
}

func (s *AnalysisStore) Get(id string) *model.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[id]
}

// ListByTenant returns the tenant's analyses, newest first.
func (s *AnalysisStore) ListByTenant(tenant string) []*model.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*model.Document{}
	for _, d := range s.docs {
		if d.Tenant == tenant {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (s *AnalysisStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
}

// Count returns the number of stored analyses
func (s *AnalysisStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// evictIfNeeded drops the oldest analyses beyond maxAnalyses.
// Must be called with lock held
func (s *AnalysisStore) evictIfNeeded() {
	if s.maxAnalyses <= 0 || len(s.docs) <= s.maxAnalyses {
		return
	}

	docs := make([]*model.Document, 0, len(s.docs))
	for _, d := range s.docs {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})

	for _, d := range docs[:len(docs)-s.maxAnalyses] {
		slog.Info("evicting old analysis", "document_id", d.ID, "created_at", d.CreatedAt)
		delete(s.docs, d.ID)
	}
}
