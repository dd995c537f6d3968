package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"expense-api/internal/domain"
	"expense-api/internal/repository"
	"expense-api/internal/storage"
)

// ErrStorageNotConfigured is returned when export is requested but no
// bucket was configured at startup.
var ErrStorageNotConfigured = errors.New("storage service not configured")

// ExportService writes CSV snapshots of a user's expenses to object
// storage and lists previous snapshots.
type ExportService interface {
	ExportCSV(ctx context.Context, identity domain.Identity) (string, error)
	ListExports(ctx context.Context, identity domain.Identity) ([]storage.ObjectInfo, error)
}

type exportService struct {
	expenses  repository.ExpenseRepository
	store     storage.Service
	bucket    string
	keyPrefix string
}

func NewExportService(expenses repository.ExpenseRepository, store storage.Service, bucket, keyPrefix string) ExportService {
	return &exportService{
		expenses:  expenses,
		store:     store,
		bucket:    bucket,
		keyPrefix: keyPrefix,
	}
}

func (s *exportService) ExportCSV(ctx context.Context, identity domain.Identity) (string, error) {
	if s.store == nil || s.bucket == "" {
		return "", ErrStorageNotConfigured
	}

	expenses, err := s.expenses.ListByUser(ctx, identity.Subject)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "title", "amount", "category", "created_at"}); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range expenses {
		record := []string{
			strconv.FormatInt(e.ID, 10),
			e.Title,
			strconv.FormatFloat(e.Amount, 'f', -1, 64),
			e.Category,
			e.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}

	key := fmt.Sprintf("%s/expenses-%s.csv", s.userPrefix(identity.Subject), uuid.NewString())
	location, err := s.store.Upload(ctx, s.bucket, key, "text/csv", &buf)
	if err != nil {
		return "", err
	}
	return location, nil
}

func (s *exportService) ListExports(ctx context.Context, identity domain.Identity) ([]storage.ObjectInfo, error) {
	if s.store == nil || s.bucket == "" {
		return nil, ErrStorageNotConfigured
	}
	return s.store.ListObjects(ctx, s.bucket, s.userPrefix(identity.Subject)+"/")
}

// userPrefix scopes export objects per user so listing never leaks
// another user's snapshots.
func (s *exportService) userPrefix(userID int64) string {
	return fmt.Sprintf("%s/user-%d", s.keyPrefix, userID)
}
