package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/sbomdex/sbomdex/internal/domain"
	catalogrepo "github.com/sbomdex/sbomdex/internal/repository/catalog"
)

// --- Mocks ---

type mockRepo struct {
	records   map[string]catalogrepo.Record
	insertErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{records: make(map[string]catalogrepo.Record)}
}

func (m *mockRepo) Insert(_ context.Context, rec catalogrepo.Record) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	if _, ok := m.records[rec.Filename]; ok {
		return domain.ErrAlreadyExists
	}
	m.records[rec.Filename] = rec
	return nil
}

func (m *mockRepo) Get(_ context.Context, filename string) (catalogrepo.Record, error) {
	rec, ok := m.records[filename]
	if !ok {
		return catalogrepo.Record{}, domain.ErrNotFound
	}
	return rec, nil
}

func (m *mockRepo) Delete(_ context.Context, filename string) error {
	if _, ok := m.records[filename]; !ok {
		return domain.ErrNotFound
	}
	delete(m.records, filename)
	return nil
}

func (m *mockRepo) List(_ context.Context, q catalogrepo.Query) ([]catalogrepo.Record, error) {
	out := make([]catalogrepo.Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *mockRepo) Autocomplete(_ context.Context, _ string, _ int) ([]string, error) {
	return nil, nil
}

func (m *mockRepo) FacetValues(_ context.Context) (catalogrepo.Facets, error) {
	return catalogrepo.Facets{}, nil
}

type mockFiles struct {
	docs map[string][]byte
}

func newMockFiles() *mockFiles {
	return &mockFiles{docs: make(map[string][]byte)}
}

func (m *mockFiles) Save(filename string, data []byte) error {
	if _, ok := m.docs[filename]; ok {
		return domain.ErrAlreadyExists
	}
	m.docs[filename] = data
	return nil
}

func (m *mockFiles) Load(filename string) ([]byte, error) {
	data, ok := m.docs[filename]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (m *mockFiles) LoadParsed(filename string) (map[string]any, error) {
	return nil, domain.ErrNotFound
}

func (m *mockFiles) Delete(filename string) error {
	if _, ok := m.docs[filename]; !ok {
		return domain.ErrNotFound
	}
	delete(m.docs, filename)
	return nil
}

const testDoc = `{
	"bomFormat": "CycloneDX",
	"metadata": {"component": {"name": "demo-app", "version": "2.1"}},
	"components": [
		{"name": "zlib", "version": "1.3", "licenses": [{"license": {"id": "Zlib"}}]}
	]
}`

// --- Tests ---

func TestUpload_DerivesMetadata(t *testing.T) {
	repo, files := newMockRepo(), newMockFiles()
	svc := New(repo, files)

	rec, err := svc.Upload(context.Background(), "demo_v2.json", []byte(testDoc), UserMetadata{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.AppName != "demo-app" {
		t.Errorf("expected app name from metadata component, got %q", rec.AppName)
	}
	if rec.Version != "2.1" {
		t.Errorf("expected version 2.1, got %q", rec.Version)
	}
	if rec.TotalComponents != 1 {
		t.Errorf("expected 1 component, got %d", rec.TotalComponents)
	}
	if _, ok := files.docs["demo_v2.json"]; !ok {
		t.Error("expected document saved to file store")
	}
}

func TestUpload_UserMetadataWins(t *testing.T) {
	svc := New(newMockRepo(), newMockFiles())

	rec, err := svc.Upload(context.Background(), "demo_v2.json", []byte(testDoc), UserMetadata{
		AppName:  "Renamed",
		Supplier: "Acme",
		Cost:     99.5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.AppName != "Renamed" {
		t.Errorf("expected user app name, got %q", rec.AppName)
	}
	if rec.Supplier != "Acme" {
		t.Errorf("expected user supplier, got %q", rec.Supplier)
	}
	if rec.Cost != 99.5 {
		t.Errorf("expected cost 99.5, got %v", rec.Cost)
	}
	// Derived fields not overridden stay.
	if rec.Version != "2.1" {
		t.Errorf("expected derived version kept, got %q", rec.Version)
	}
}

func TestUpload_RejectsMalformedJSON(t *testing.T) {
	svc := New(newMockRepo(), newMockFiles())

	_, err := svc.Upload(context.Background(), "bad.json", []byte("{oops"), UserMetadata{})
	if !errors.Is(err, domain.ErrMalformedDocument) {
		t.Fatalf("expected ErrMalformedDocument, got %v", err)
	}
}

func TestUpload_CleansUpFileOnInsertFailure(t *testing.T) {
	repo, files := newMockRepo(), newMockFiles()
	repo.insertErr = errors.New("db is down")
	svc := New(repo, files)

	_, err := svc.Upload(context.Background(), "demo_v2.json", []byte(testDoc), UserMetadata{})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(files.docs) != 0 {
		t.Error("expected orphaned file removed after insert failure")
	}
}

func TestDocument_RequiresCatalogRow(t *testing.T) {
	repo, files := newMockRepo(), newMockFiles()
	files.docs["orphan.json"] = []byte(testDoc)
	svc := New(repo, files)

	_, err := svc.Document(context.Background(), "orphan.json")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for uncataloged file, got %v", err)
	}
}

func TestList_ClampsPageSize(t *testing.T) {
	repo := newMockRepo()
	for _, name := range []string{"a.json", "b.json", "c.json"} {
		repo.records[name] = catalogrepo.Record{Filename: name}
	}
	svc := New(repo, newMockFiles()).WithPagination(2, 2)

	records, err := svc.List(context.Background(), catalogrepo.Query{Limit: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected limit clamped to 2, got %d records", len(records))
	}
}

func TestAutocomplete_RequiresPrefix(t *testing.T) {
	svc := New(newMockRepo(), newMockFiles())

	_, err := svc.Autocomplete(context.Background(), "", 10)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDelete_RemovesRowAndFile(t *testing.T) {
	repo, files := newMockRepo(), newMockFiles()
	svc := New(repo, files)

	if _, err := svc.Upload(context.Background(), "demo_v2.json", []byte(testDoc), UserMetadata{}); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := svc.Delete(context.Background(), "demo_v2.json"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(repo.records) != 0 {
		t.Error("expected catalog row removed")
	}
	if len(files.docs) != 0 {
		t.Error("expected file removed")
	}
}
