package records

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Fields a patch may not overwrite, lowercased.
var protectedFields = map[string]struct{}{
	"id":        {},
	"userid":    {},
	"createdat": {},
}

type Service struct {
	repo     Repository
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Append assigns a fresh id and createdAt to record and adds it to the end of
// the owner's collection.
func (s *Service) Append(ctx context.Context, ownerID string, record PolicyRecord) (*PolicyRecord, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	record.Name = strings.TrimSpace(record.Name)
	if err := s.validate.Struct(record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	var result PolicyRecord
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		existing, err := tx.List(ctx, ownerID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		record.ID = nextRecordID(now, existing)
		record.UserID = ownerID
		record.CreatedAt = now

		if err := tx.Save(ctx, ownerID, append(existing, record)); err != nil {
			return err
		}
		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Service) List(ctx context.Context, ownerID string) ([]PolicyRecord, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrOwnerRequired
	}
	return s.repo.List(ctx, ownerID)
}

func (s *Service) Count(ctx context.Context, ownerID string) (int, error) {
	items, err := s.List(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (s *Service) Get(ctx context.Context, ownerID, recordID string) (*PolicyRecord, error) {
	items, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.ID == recordID {
			found := item
			return &found, nil
		}
	}
	return nil, ErrRecordNotFound
}

// UpdateByID shallow-merges patch into the matching record. Keys without a
// typed field are kept as extra attributes. A missing id is not an error: the
// collection is left untouched and found is false.
func (s *Service) UpdateByID(ctx context.Context, ownerID, recordID string, patch Patch) (record *PolicyRecord, found bool, err error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, false, ErrOwnerRequired
	}

	var result PolicyRecord
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		items, err := tx.List(ctx, ownerID)
		if err != nil {
			return err
		}

		idx := indexOf(items, recordID)
		if idx == -1 {
			return nil
		}
		found = true

		merged, err := applyPatch(items[idx], patch)
		if err != nil {
			return err
		}
		merged.Name = strings.TrimSpace(merged.Name)
		if err := s.validate.Struct(merged); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}

		items[idx] = merged
		if err := tx.Save(ctx, ownerID, items); err != nil {
			return err
		}
		result = merged
		return nil
	})
	if err != nil || !found {
		return nil, found, err
	}
	return &result, true, nil
}

// DeleteByID filters the record out and rewrites the collection. It reports
// whether a record was removed.
func (s *Service) DeleteByID(ctx context.Context, ownerID, recordID string) (bool, error) {
	if strings.TrimSpace(ownerID) == "" {
		return false, ErrOwnerRequired
	}

	removed := false
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		items, err := tx.List(ctx, ownerID)
		if err != nil {
			return err
		}

		kept := make([]PolicyRecord, 0, len(items))
		for _, item := range items {
			if item.ID == recordID {
				removed = true
				continue
			}
			kept = append(kept, item)
		}
		if !removed {
			return nil
		}
		return tx.Save(ctx, ownerID, kept)
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

func applyPatch(record PolicyRecord, patch Patch) (PolicyRecord, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return PolicyRecord{}, err
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return PolicyRecord{}, err
	}
	for key, value := range patch {
		if _, ok := protectedFields[strings.ToLower(key)]; ok {
			continue
		}
		doc[key] = value
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return PolicyRecord{}, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}

	var out PolicyRecord
	if err := json.Unmarshal(merged, &out); err != nil {
		return PolicyRecord{}, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return out, nil
}

// nextRecordID uses the unix-ms clock and steps forward past ids already in
// the collection.
func nextRecordID(now time.Time, existing []PolicyRecord) string {
	millis := now.UnixMilli()
	for {
		id := strconv.FormatInt(millis, 10)
		if indexOf(existing, id) == -1 {
			return id
		}
		millis++
	}
}

func indexOf(items []PolicyRecord, recordID string) int {
	for i := range items {
		if items[i].ID == recordID {
			return i
		}
	}
	return -1
}
