package services_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/inkfinity/backend/models"
	"github.com/inkfinity/backend/repository"
	"github.com/inkfinity/backend/storage"
	"github.com/stretchr/testify/require"
)

// --- products ---

type memProducts struct {
	mu       sync.Mutex
	items    map[uuid.UUID]*models.Product
	failSave error
}

func newMemProducts(products ...models.Product) *memProducts {
	m := &memProducts{items: make(map[uuid.UUID]*models.Product)}
	for i := range products {
		p := products[i]
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		m.items[p.ID] = &p
	}
	return m
}

func (m *memProducts) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) all() []models.Product {
	out := make([]models.Product, 0, len(m.items))
	for _, p := range m.items {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *memProducts) Find(_ context.Context, f models.ProductFilter) ([]models.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []models.Product
	for _, p := range m.all() {
		if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
			continue
		}
		matched = append(matched, p)
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * f.PerPage
	if start >= len(matched) {
		return nil, int64(len(matched)), nil
	}
	end := start + f.PerPage
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], int64(len(matched)), nil
}

func (m *memProducts) ListTrending(context.Context) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Product
	for _, p := range m.all() {
		if p.IsTrending {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TrendingOrder < out[j].TrendingOrder })
	return out, nil
}

func (m *memProducts) Create(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave != nil {
		return m.failSave
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

func (m *memProducts) Update(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave != nil {
		return m.failSave
	}
	if _, ok := m.items[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

func (m *memProducts) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memProducts) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.items)), nil
}

func (m *memProducts) CountTrending(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.items {
		if p.IsTrending {
			n++
		}
	}
	return n, nil
}

func (m *memProducts) CountByCategory(_ context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.items {
		if p.CategoryID != nil && *p.CategoryID == id {
			n++
		}
	}
	return n, nil
}

func (m *memProducts) ListProductsByName(context.Context) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.all(), nil
}

func (m *memProducts) ClearTrending(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.items {
		if p.IsTrending {
			p.IsTrending = false
			p.TrendingOrder = 0
		}
	}
	return nil
}

func (m *memProducts) SetTrending(_ context.Context, id uuid.UUID, order int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave != nil {
		return m.failSave
	}
	p, ok := m.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.IsTrending = true
	p.TrendingOrder = order
	return nil
}

// --- categories ---

type memCategories struct {
	items map[uuid.UUID]*models.Category
}

func newMemCategories(cats ...models.Category) *memCategories {
	m := &memCategories{items: make(map[uuid.UUID]*models.Category)}
	for i := range cats {
		c := cats[i]
		m.items[c.ID] = &c
	}
	return m
}

func (m *memCategories) FindByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCategories) FindBySlug(_ context.Context, slug string) (*models.Category, error) {
	for _, c := range m.items {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memCategories) FindAll(context.Context) ([]models.Category, error) {
	var out []models.Category
	for _, c := range m.items {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memCategories) slugTaken(slug string, except uuid.UUID) bool {
	for _, c := range m.items {
		if c.Slug == slug && c.ID != except {
			return true
		}
	}
	return false
}

func (m *memCategories) Create(_ context.Context, c *models.Category) error {
	if m.slugTaken(c.Slug, uuid.Nil) {
		return repository.ErrDuplicate
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	m.items[c.ID] = &cp
	return nil
}

func (m *memCategories) Update(_ context.Context, c *models.Category) error {
	if _, ok := m.items[c.ID]; !ok {
		return repository.ErrNotFound
	}
	if m.slugTaken(c.Slug, c.ID) {
		return repository.ErrDuplicate
	}
	cp := *c
	m.items[c.ID] = &cp
	return nil
}

func (m *memCategories) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memCategories) Count(context.Context) (int64, error) {
	return int64(len(m.items)), nil
}

// --- blog ---

type memPosts struct {
	items []*models.BlogPost // newest first
}

func (m *memPosts) find(fn func(*models.BlogPost) bool) *models.BlogPost {
	for _, p := range m.items {
		if fn(p) {
			return p
		}
	}
	return nil
}

func (m *memPosts) FindByID(_ context.Context, id uuid.UUID) (*models.BlogPost, error) {
	p := m.find(func(p *models.BlogPost) bool { return p.ID == id })
	if p == nil {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPosts) FindBySlug(_ context.Context, slug string, publishedOnly bool) (*models.BlogPost, error) {
	p := m.find(func(p *models.BlogPost) bool { return p.Slug == slug && (p.Published || !publishedOnly) })
	if p == nil {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPosts) Find(_ context.Context, f models.BlogFilter) ([]models.BlogPost, int64, error) {
	var out []models.BlogPost
	for _, p := range m.items {
		if f.PublishedOnly && !p.Published {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (m *memPosts) FindFeatured(context.Context) (*models.BlogPost, error) {
	p := m.find(func(p *models.BlogPost) bool { return p.Featured && p.Published })
	if p == nil {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPosts) FindRelated(_ context.Context, excludeID uuid.UUID, limit int) ([]models.BlogPost, error) {
	var out []models.BlogPost
	for _, p := range m.items {
		if p.Published && p.ID != excludeID && len(out) < limit {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memPosts) Create(_ context.Context, p *models.BlogPost) error {
	if m.find(func(q *models.BlogPost) bool { return q.Slug == p.Slug }) != nil {
		return repository.ErrDuplicate
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	m.items = append([]*models.BlogPost{&cp}, m.items...)
	return nil
}

func (m *memPosts) Update(_ context.Context, p *models.BlogPost) error {
	for i, q := range m.items {
		if q.ID == p.ID {
			cp := *p
			m.items[i] = &cp
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memPosts) SetPublished(_ context.Context, id uuid.UUID, published bool) error {
	p := m.find(func(p *models.BlogPost) bool { return p.ID == id })
	if p == nil {
		return repository.ErrNotFound
	}
	p.Published = published
	return nil
}

func (m *memPosts) Delete(_ context.Context, id uuid.UUID) error {
	for i, p := range m.items {
		if p.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memPosts) Count(_ context.Context, publishedOnly bool) (int64, error) {
	var n int64
	for _, p := range m.items {
		if p.Published || !publishedOnly {
			n++
		}
	}
	return n, nil
}

// --- inquiries ---

type memInquiries struct {
	items []*models.Inquiry // newest first
}

func (m *memInquiries) FindByID(_ context.Context, id uuid.UUID) (*models.Inquiry, error) {
	for _, i := range m.items {
		if i.ID == id {
			cp := *i
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memInquiries) Find(_ context.Context, f models.InquiryFilter) ([]models.Inquiry, int64, error) {
	var out []models.Inquiry
	for _, i := range m.items {
		switch f.Status {
		case models.InquiryStatusRead:
			if !i.Read {
				continue
			}
		case models.InquiryStatusUnread:
			if i.Read {
				continue
			}
		}
		out = append(out, *i)
	}
	return out, int64(len(out)), nil
}

func (m *memInquiries) Recent(_ context.Context, limit int) ([]models.Inquiry, error) {
	var out []models.Inquiry
	for _, i := range m.items {
		if len(out) == limit {
			break
		}
		out = append(out, *i)
	}
	return out, nil
}

func (m *memInquiries) Create(_ context.Context, i *models.Inquiry) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	cp := *i
	m.items = append([]*models.Inquiry{&cp}, m.items...)
	return nil
}

func (m *memInquiries) SetRead(_ context.Context, id uuid.UUID, read bool) error {
	for _, i := range m.items {
		if i.ID == id {
			i.Read = read
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memInquiries) Delete(_ context.Context, id uuid.UUID) error {
	for n, i := range m.items {
		if i.ID == id {
			m.items = append(m.items[:n], m.items[n+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memInquiries) Count(context.Context) (int64, error) {
	return int64(len(m.items)), nil
}

func (m *memInquiries) CountUnread(context.Context) (int64, error) {
	var n int64
	for _, i := range m.items {
		if !i.Read {
			n++
		}
	}
	return n, nil
}

// --- settings ---

type memSettings struct {
	row     *models.CompanySettings
	upserts int
}

func (m *memSettings) Get(context.Context) (*models.CompanySettings, error) {
	if m.row == nil {
		return nil, repository.ErrNotFound
	}
	cp := *m.row
	return &cp, nil
}

func (m *memSettings) Upsert(_ context.Context, s *models.CompanySettings) error {
	cp := *s
	m.row = &cp
	m.upserts++
	return nil
}

// --- admins ---

type memAdmins struct {
	items map[string]*models.AdminUser
}

func (m *memAdmins) FindByEmail(_ context.Context, email string) (*models.AdminUser, error) {
	u, ok := m.items[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memAdmins) Create(_ context.Context, u *models.AdminUser) error {
	if m.items == nil {
		m.items = make(map[string]*models.AdminUser)
	}
	if _, ok := m.items[u.Email]; ok {
		return repository.ErrDuplicate
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cp := *u
	m.items[u.Email] = &cp
	return nil
}

func (m *memAdmins) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	for _, u := range m.items {
		if u.ID == id {
			u.PasswordHash = hash
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- images ---

type memImages struct {
	mu        sync.Mutex
	stored    map[string]bool
	deleted   []string
	failAfter int // uploads allowed before failing, -1 = never fail
}

func newMemImages() *memImages {
	return &memImages{stored: make(map[string]bool), failAfter: -1}
}

func (m *memImages) Upload(_ context.Context, folder, filename string, body io.Reader, _ string) (*storage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAfter == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	if m.failAfter > 0 {
		m.failAfter--
	}
	if _, err := io.ReadAll(body); err != nil {
		return nil, err
	}
	key := folder + "/" + filename
	m.stored[key] = true
	return &storage.Object{Key: key, URL: "https://cdn.test/" + key}, nil
}

func (m *memImages) Delete(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, ref)
	delete(m.stored, strings.TrimPrefix(ref, "https://cdn.test/"))
	return nil
}

func (m *memImages) PublicURL(ref string) string {
	if strings.HasPrefix(ref, "https://") {
		return ref
	}
	return "https://cdn.test/" + ref
}

func (m *memImages) deletedRefs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// --- events ---

type recordingPublisher struct {
	events chan models.EventPayload
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{events: make(chan models.EventPayload, 8)}
}

func (p *recordingPublisher) Publish(_ context.Context, e models.EventPayload) error {
	p.events <- e
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

// fileHeaders builds multipart file headers named name/contents pairs.
func fileHeaders(t *testing.T, files ...string) []*multipart.FileHeader {
	t.Helper()
	require.Zero(t, len(files)%2)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for i := 0; i < len(files); i += 2 {
		part, err := w.CreateFormFile("images", files[i])
		require.NoError(t, err)
		_, err = part.Write([]byte(files[i+1]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["images"]
}
