package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"expense-api/internal/domain"
	"expense-api/internal/storage"
)

type fakeStore struct {
	bucket      string
	key         string
	contentType string
	body        string
	objects     []storage.ObjectInfo
	lastPrefix  string
}

func (s *fakeStore) Upload(ctx context.Context, bucket, key, contentType string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.bucket = bucket
	s.key = key
	s.contentType = contentType
	s.body = string(data)
	return fmt.Sprintf("s3://%s/%s", bucket, key), nil
}

func (s *fakeStore) ListObjects(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	s.lastPrefix = prefix
	return s.objects, nil
}

var _ storage.Service = (*fakeStore)(nil)

func TestExportCSV(t *testing.T) {
	repo := newFakeExpenseRepo()
	store := &fakeStore{}
	svc := NewExportService(repo, store, "finance", "exp")
	owner := domain.Identity{Subject: 7}

	_, err := repo.Create(context.Background(), &domain.Expense{
		Title: "Milk", Amount: 3.5, Category: "Groceries", UserID: 7,
	})
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), &domain.Expense{
		Title: "Someone else's", Amount: 9, Category: "Others", UserID: 8,
	})
	require.NoError(t, err)

	location, err := svc.ExportCSV(context.Background(), owner)
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("s3://finance/%s", store.key), location)

	require.True(t, strings.HasPrefix(store.key, "exp/user-7/expenses-"), "key %q", store.key)
	require.True(t, strings.HasSuffix(store.key, ".csv"), "key %q", store.key)
	require.Equal(t, "text/csv", store.contentType)

	records, err := csv.NewReader(strings.NewReader(store.body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2) // header + the owner's single expense
	require.Equal(t, []string{"id", "title", "amount", "category", "created_at"}, records[0])
	require.Equal(t, "Milk", records[1][1])
	require.Equal(t, "3.5", records[1][2])
	require.Equal(t, "Groceries", records[1][3])
}

func TestExportCSV_NotConfigured(t *testing.T) {
	repo := newFakeExpenseRepo()

	svc := NewExportService(repo, nil, "finance", "exp")
	_, err := svc.ExportCSV(context.Background(), domain.Identity{Subject: 7})
	require.ErrorIs(t, err, ErrStorageNotConfigured)

	svc = NewExportService(repo, &fakeStore{}, "", "exp")
	_, err = svc.ExportCSV(context.Background(), domain.Identity{Subject: 7})
	require.ErrorIs(t, err, ErrStorageNotConfigured)
}

func TestListExports_ScopedPrefix(t *testing.T) {
	repo := newFakeExpenseRepo()
	store := &fakeStore{objects: []storage.ObjectInfo{{Key: "exp/user-7/expenses-x.csv", Size: 42}}}
	svc := NewExportService(repo, store, "finance", "exp")

	objects, err := svc.ListExports(context.Background(), domain.Identity{Subject: 7})
	require.NoError(t, err)
	require.Len(t, objects, 1)
	require.Equal(t, "exp/user-7/", store.lastPrefix)
}
