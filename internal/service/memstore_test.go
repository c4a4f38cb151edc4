package service_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"backoffice/internal/dto"
	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory store ───────────────────────────────────────────────────────────
// memStore backs the product, stock history and sale stubs. WithinTx holds the store
// mutex for the whole unit of work and restores a snapshot when fn fails, which is
// enough to model row locks and rollback. Tx methods assume the mutex is held.

type memStore struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
	history  []model.StockEntry
	sales    map[uuid.UUID]*model.Sale

	// failOn makes the named Tx method fail once, to exercise rollback.
	failOn string
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[uuid.UUID]*model.Product),
		sales:    make(map[uuid.UUID]*model.Sale),
	}
}

type memSnapshot struct {
	products map[uuid.UUID]model.Product
	history  []model.StockEntry
	sales    map[uuid.UUID]*model.Sale
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		products: make(map[uuid.UUID]model.Product, len(s.products)),
		history:  append([]model.StockEntry(nil), s.history...),
		sales:    make(map[uuid.UUID]*model.Sale, len(s.sales)),
	}
	for id, p := range s.products {
		snap.products[id] = *p
	}
	for id, sale := range s.sales {
		snap.sales[id] = cloneSale(sale)
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.products = make(map[uuid.UUID]*model.Product, len(snap.products))
	for id, p := range snap.products {
		p := p
		s.products[id] = &p
	}
	s.history = snap.history
	s.sales = snap.sales
}

func cloneSale(in *model.Sale) *model.Sale {
	out := *in
	out.Items = append([]model.SaleItem(nil), in.Items...)
	out.Payments = append([]model.SalePayment(nil), in.Payments...)
	return &out
}

func (s *memStore) fail(method string) error {
	if s.failOn == method {
		s.failOn = ""
		return errInjected
	}
	return nil
}

var errInjected = errors.New("injected failure")

// seedProduct stores a product directly, bypassing the service.
func (s *memStore) seedProduct(owner uuid.UUID, name string, qty int, price string) *model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &model.Product{
		ID:            uuid.New(),
		OwnerID:       owner,
		ProductCode:   strings.ToUpper(strings.ReplaceAll(name, " ", "-")),
		Name:          name,
		UnitPrice:     decimal.RequireFromString(price),
		Currency:      "NGN",
		Quantity:      qty,
		MinStockLevel: 2,
		Unit:          "piece",
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	p.RefreshStatus()
	s.products[p.ID] = p
	cp := *p
	return &cp
}

func (s *memStore) quantity(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Quantity
}

func (s *memStore) product(id uuid.UUID) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.products[id]
}

func (s *memStore) entries(productID uuid.UUID) []model.StockEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.StockEntry
	for _, e := range s.history {
		if e.ProductID == productID {
			out = append(out, e)
		}
	}
	return out
}

func (s *memStore) storedSale(id uuid.UUID) *model.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, ok := s.sales[id]
	if !ok {
		return nil
	}
	return cloneSale(sale)
}

func (s *memStore) saleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sales)
}

// ── TxManager ─────────────────────────────────────────────────────────────────

type memTx struct{ store *memStore }

func (m memTx) WithinTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	snap := m.store.snapshot()
	if err := fn(nil); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

var _ repository.TxManager = memTx{}

// ── ProductRepository ─────────────────────────────────────────────────────────

type memProductRepo struct{ store *memStore }

func (r memProductRepo) Create(_ context.Context, p *model.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.CreateTx(nil, p)
}

func (r memProductRepo) FindByID(_ context.Context, ownerID, id uuid.UUID) (*model.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.LockTx(nil, ownerID, id)
}

func (r memProductRepo) List(_ context.Context, ownerID uuid.UUID, filter dto.ProductFilter) ([]model.Product, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []model.Product
	for _, p := range r.store.products {
		if p.OwnerID != ownerID {
			continue
		}
		switch filter.Active {
		case "all":
		case "false":
			if p.IsActive {
				continue
			}
		default:
			if !p.IsActive {
				continue
			}
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if q := strings.ToLower(filter.Search); q != "" &&
			!strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.ProductCode), q) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	total := int64(len(out))
	start := (filter.Page - 1) * filter.Limit
	if start > len(out) {
		start = len(out)
	}
	end := start + filter.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (r memProductRepo) Deactivate(_ context.Context, ownerID, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[id]
	if !ok || p.OwnerID != ownerID {
		return gorm.ErrRecordNotFound
	}
	p.IsActive = false
	return nil
}

func (r memProductRepo) LowStock(_ context.Context, ownerID uuid.UUID) ([]model.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []model.Product
	for _, p := range r.store.products {
		if p.OwnerID == ownerID && p.IsActive && p.Quantity > 0 && p.Quantity <= p.MinStockLevel {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Quantity < out[j].Quantity })
	return out, nil
}

func (r memProductRepo) TopSelling(_ context.Context, ownerID uuid.UUID, limit int) ([]model.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []model.Product
	for _, p := range r.store.products {
		if p.OwnerID == ownerID && p.IsActive && p.Analytics.TotalSold > 0 {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Analytics.TotalSold > out[j].Analytics.TotalSold })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memProductRepo) CreateTx(_ *gorm.DB, p *model.Product) error {
	if err := r.store.fail("ProductCreateTx"); err != nil {
		return err
	}
	for _, existing := range r.store.products {
		if existing.OwnerID == p.OwnerID && existing.ProductCode == p.ProductCode {
			return repository.ErrConflict
		}
	}
	cp := *p
	r.store.products[p.ID] = &cp
	return nil
}

func (r memProductRepo) UpdateTx(_ *gorm.DB, p *model.Product) error {
	stored, ok := r.store.products[p.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	qty := stored.Quantity
	*stored = *p
	stored.Quantity = qty
	return nil
}

func (r memProductRepo) LockActiveTx(_ *gorm.DB, ownerID uuid.UUID, ids []uuid.UUID) ([]model.Product, error) {
	var out []model.Product
	for _, id := range ids {
		if p, ok := r.store.products[id]; ok && p.OwnerID == ownerID && p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r memProductRepo) LockTx(_ *gorm.DB, ownerID, id uuid.UUID) (*model.Product, error) {
	p, ok := r.store.products[id]
	if !ok || p.OwnerID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r memProductRepo) DecrementStockTx(_ *gorm.DB, id uuid.UUID, qty int) error {
	if err := r.store.fail("DecrementStockTx"); err != nil {
		return err
	}
	p, ok := r.store.products[id]
	if !ok || p.Quantity < qty {
		return repository.ErrStockGuard
	}
	p.Quantity -= qty
	return nil
}

func (r memProductRepo) IncrementStockTx(_ *gorm.DB, id uuid.UUID, qty int) error {
	p, ok := r.store.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Quantity += qty
	return nil
}

func (r memProductRepo) SaveDerivedTx(_ *gorm.DB, p *model.Product) error {
	stored, ok := r.store.products[p.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Status = p.Status
	stored.TotalValue = p.TotalValue
	stored.Analytics = p.Analytics
	stored.UpdatedAt = p.UpdatedAt
	return nil
}

var _ repository.ProductRepository = memProductRepo{}

// ── StockHistoryRepository ────────────────────────────────────────────────────

type memHistoryRepo struct{ store *memStore }

func (r memHistoryRepo) CreateTx(_ *gorm.DB, e *model.StockEntry) error {
	if err := r.store.fail("HistoryCreateTx"); err != nil {
		return err
	}
	r.store.history = append(r.store.history, *e)
	return nil
}

func (r memHistoryRepo) List(_ context.Context, filter repository.StockHistoryFilter) ([]model.StockEntry, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []model.StockEntry
	for i := len(r.store.history) - 1; i >= 0; i-- {
		e := r.store.history[i]
		if e.ProductID != filter.ProductID || (filter.Type != "" && e.Type != filter.Type) {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

var _ repository.StockHistoryRepository = memHistoryRepo{}

// ── SaleRepository ────────────────────────────────────────────────────────────

type memSaleRepo struct{ store *memStore }

func (r memSaleRepo) CreateTx(_ *gorm.DB, s *model.Sale) error {
	if err := r.store.fail("SaleCreateTx"); err != nil {
		return err
	}
	for _, existing := range r.store.sales {
		if s.IdempotencyKey != nil && existing.IdempotencyKey != nil &&
			existing.SellerID == s.SellerID && *existing.IdempotencyKey == *s.IdempotencyKey {
			return repository.ErrConflict
		}
	}
	r.store.sales[s.ID] = cloneSale(s)
	return nil
}

func (r memSaleRepo) FindByID(_ context.Context, sellerID, id uuid.UUID) (*model.Sale, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.FindForUpdateTx(nil, sellerID, id)
}

func (r memSaleRepo) FindByIdempotencyKey(_ context.Context, sellerID uuid.UUID, key string) (*model.Sale, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range r.store.sales {
		if s.SellerID == sellerID && s.IdempotencyKey != nil && *s.IdempotencyKey == key {
			return cloneSale(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memSaleRepo) FindForUpdateTx(_ *gorm.DB, sellerID, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.store.sales[id]
	if !ok || s.SellerID != sellerID {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneSale(s), nil
}

func (r memSaleRepo) UpdateTx(_ *gorm.DB, s *model.Sale) error {
	stored, ok := r.store.sales[s.ID]
	if !ok || stored.Version != s.Version {
		return repository.ErrConflict
	}
	s.Version++
	r.store.sales[s.ID] = cloneSale(s)
	return nil
}

func (r memSaleRepo) AppendPaymentTx(_ *gorm.DB, p *model.SalePayment) error {
	stored, ok := r.store.sales[p.SaleID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Payments = append(stored.Payments, *p)
	return nil
}

func (r memSaleRepo) List(_ context.Context, sellerID uuid.UUID, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []model.Sale
	for _, s := range r.store.sales {
		if s.SellerID != sellerID || (s.IsDeleted && !filter.IncludeDeleted) {
			continue
		}
		if filter.Status != "" && filter.Status != "all" && s.Status != filter.Status {
			continue
		}
		if filter.PaymentStatus != "" && s.PaymentStatus != filter.PaymentStatus {
			continue
		}
		if (filter.StartDate != nil && s.SaleDate.Before(*filter.StartDate)) ||
			(filter.EndDate != nil && s.SaleDate.After(*filter.EndDate)) {
			continue
		}
		out = append(out, *cloneSale(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SaleDate.After(out[j].SaleDate) })
	return out, int64(len(out)), nil
}

func (r memSaleRepo) reportable(sellerID uuid.UUID, from, to time.Time) []*model.Sale {
	var out []*model.Sale
	for _, s := range r.store.sales {
		if s.SellerID == sellerID && s.Status == model.SaleCompleted && !s.IsDeleted &&
			!s.SaleDate.Before(from) && !s.SaleDate.After(to) {
			out = append(out, s)
		}
	}
	return out
}

func (r memSaleRepo) Overview(_ context.Context, sellerID uuid.UUID, from, to time.Time) (*repository.SalesOverview, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ov := &repository.SalesOverview{}
	for _, s := range r.reportable(sellerID, from, to) {
		ov.TotalSales++
		ov.TotalRevenue = ov.TotalRevenue.Add(s.TotalAmount)
		ov.TotalPaid = ov.TotalPaid.Add(s.AmountPaid)
		ov.OutstandingBalance = ov.OutstandingBalance.Add(s.Balance)
		for _, it := range s.Items {
			ov.ItemsSold += int64(it.Quantity)
		}
	}
	return ov, nil
}

func (r memSaleRepo) Breakdown(_ context.Context, sellerID uuid.UUID, column string, from, to time.Time) ([]repository.GroupTotal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	groups := map[string]*repository.GroupTotal{}
	var keys []string
	for _, s := range r.reportable(sellerID, from, to) {
		key := s.PaymentMethod
		if column == "channel" {
			key = s.Channel
		}
		g, ok := groups[key]
		if !ok {
			g = &repository.GroupTotal{Key: key}
			groups[key] = g
			keys = append(keys, key)
		}
		g.Total = g.Total.Add(s.TotalAmount)
		g.Count++
	}
	sort.Strings(keys)
	out := make([]repository.GroupTotal, 0, len(keys))
	for _, k := range keys {
		out = append(out, *groups[k])
	}
	return out, nil
}

func (r memSaleRepo) Monthly(_ context.Context, sellerID uuid.UUID, year int) ([]repository.MonthTotal, error) {
	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0).Add(-time.Nanosecond)
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	byMonth := map[int]*repository.MonthTotal{}
	for _, s := range r.reportable(sellerID, from, to) {
		m := int(s.SaleDate.Month())
		if byMonth[m] == nil {
			byMonth[m] = &repository.MonthTotal{Month: m}
		}
		byMonth[m].TotalSales++
		byMonth[m].Revenue = byMonth[m].Revenue.Add(s.TotalAmount)
	}
	var out []repository.MonthTotal
	for _, mt := range byMonth {
		out = append(out, *mt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

var _ repository.SaleRepository = memSaleRepo{}

// ── Receipt queue ─────────────────────────────────────────────────────────────

type recordingQueue struct {
	mu   sync.Mutex
	jobs []uuid.UUID
}

func (q *recordingQueue) EnqueueReceipt(_ context.Context, _, saleID uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, saleID)
	return nil
}

func (q *recordingQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}
