package history

import (
	"context"
	"sort"
	"sync"

	"github.com/angel88c/rolling-forecast-sub000/internal/domain"
)

// MemoryStore es la implementación en memoria de ports.HistoryStore,
// para tests y corridas efímeras sin archivo de base de datos.
type MemoryStore struct {
	mu       sync.Mutex
	projects map[string]domain.HistoricalProject // llave cliente|proyecto|fecha
	defaults map[string]domain.ClientDefaults
}

// NewMemoryStore crea un store vacío.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects: make(map[string]domain.HistoricalProject),
		defaults: make(map[string]domain.ClientDefaults),
	}
}

func projectKey(p domain.HistoricalProject) string {
	return p.ClientName + "|" + p.ProjectName + "|" + p.CloseDate.Format(dateFormat)
}

// AddProjects hace upsert en lote, last-write-wins.
func (s *MemoryStore) AddProjects(_ context.Context, projects []domain.HistoricalProject) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, p := range projects {
		if p.ClientName == "" {
			continue
		}
		s.projects[projectKey(p)] = p
		added++
	}
	return added, nil
}

func (s *MemoryStore) clientProjects(clientName string) []domain.HistoricalProject {
	var out []domain.HistoricalProject
	for _, p := range s.projects {
		if p.ClientName == clientName {
			out = append(out, p)
		}
	}
	return out
}

// PaymentTerms devuelve el término más común; empates por fecha más reciente.
func (s *MemoryStore) PaymentTerms(_ context.Context, clientName string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type stat struct {
		count  int
		latest string
	}
	stats := map[string]*stat{}
	for _, p := range s.clientProjects(clientName) {
		if p.PaymentTerms == "" {
			continue
		}
		st, ok := stats[p.PaymentTerms]
		if !ok {
			st = &stat{}
			stats[p.PaymentTerms] = st
		}
		st.count++
		if d := p.CloseDate.Format(dateFormat); d > st.latest {
			st.latest = d
		}
	}
	if len(stats) == 0 {
		return "", false, nil
	}

	terms := make([]string, 0, len(stats))
	for t := range stats {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		a, b := stats[terms[i]], stats[terms[j]]
		if a.count != b.count {
			return a.count > b.count
		}
		return a.latest > b.latest
	})
	return terms[0], true, nil
}

// AverageLeadTime promedia lead times, con banda ±50% si amount > 0.
func (s *MemoryStore) AverageLeadTime(_ context.Context, clientName string, amount float64) (float64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum, n := 0.0, 0
	for _, p := range s.clientProjects(clientName) {
		if p.LeadTime <= 0 {
			continue
		}
		if amount > 0 && (p.Amount < amount*0.5 || p.Amount > amount*1.5) {
			continue
		}
		sum += p.LeadTime
		n++
	}
	if n == 0 {
		return 0, false, nil
	}
	return sum / float64(n), true, nil
}

// ClientHistory devuelve el resumen del cliente.
func (s *MemoryStore) ClientHistory(ctx context.Context, clientName string) (domain.ClientHistory, bool, error) {
	s.mu.Lock()
	projects := s.clientProjects(clientName)
	s.mu.Unlock()

	if len(projects) == 0 {
		return domain.ClientHistory{}, false, nil
	}

	h := domain.ClientHistory{ClientName: clientName, ProjectCount: len(projects)}
	leadSum, leadN := 0.0, 0
	for _, p := range projects {
		h.AverageAmount += p.Amount
		if p.LeadTime > 0 {
			leadSum += p.LeadTime
			leadN++
		}
		if p.CloseDate.After(h.LastProjectDate) {
			h.LastProjectDate = p.CloseDate
		}
	}
	h.AverageAmount /= float64(len(projects))
	if leadN > 0 {
		h.AverageLeadTime = leadSum / float64(leadN)
	}
	if terms, ok, _ := s.PaymentTerms(ctx, clientName); ok {
		h.MostCommonTerms = terms
	}
	return h, true, nil
}

// ClientDefaults devuelve los overrides del cliente.
func (s *MemoryStore) ClientDefaults(_ context.Context, clientName string) (domain.ClientDefaults, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.defaults[clientName]
	return d, ok, nil
}

// SetClientDefaults registra los overrides del cliente.
func (s *MemoryStore) SetClientDefaults(_ context.Context, defaults domain.ClientDefaults) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults[defaults.ClientName] = defaults
	return nil
}

// Stats devuelve cobertura del histórico.
func (s *MemoryStore) Stats(_ context.Context) (domain.StoreStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := domain.StoreStats{TotalProjects: len(s.projects)}
	clients := map[string]bool{}
	for _, p := range s.projects {
		clients[p.ClientName] = true
		if p.PaymentTerms != "" {
			st.WithPaymentTerms++
		}
		if p.LeadTime > 0 {
			st.WithLeadTime++
		}
	}
	st.UniqueClients = len(clients)
	return st, nil
}

// Close no hace nada: no hay recursos que liberar.
func (s *MemoryStore) Close() error {
	return nil
}
