// Package records manages the admin-attributed soil type and distributor
// records. Every signed-in user can read them; only the admin who created a
// record may delete it.
package records

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"rootify-backend/internal/audit"
	"rootify-backend/internal/logging"
	"rootify-backend/internal/models"
	"rootify-backend/internal/store"
	"rootify-backend/internal/users"
)

// Kind names a record collection.
type Kind string

const (
	SoilTypes    Kind = "soil_types"
	Distributors Kind = "distributors"
)

const ownerField = "addedByAdminUID"

var (
	ErrNotFound     = errors.New("record not found")
	ErrNotOwner     = errors.New("record belongs to another admin")
	ErrNotAdmin     = errors.New("only admins can add records")
	ErrInvalidInput = errors.New("invalid record")
	ErrUnknownKind  = errors.New("unknown record kind")
)

type AdminLookup interface {
	Get(ctx context.Context, uid string) (*models.UserRecord, error)
}

type AuditWriter interface {
	WriteLog(ctx context.Context, opts audit.LogOptions) error
}

type SoilTypeInput struct {
	Name             string   `json:"name"`
	PH               float64  `json:"pH"`
	Nutrients        string   `json:"nutrients"`
	WaterRetention   string   `json:"waterRetention"`
	RecommendedCrops []string `json:"recommendedCrops"`
}

type DistributorInput struct {
	Name     string `json:"name"`
	Contact  string `json:"contact"`
	Location string `json:"location"`
}

type Service struct {
	store store.Store
	users AdminLookup
	audit AuditWriter
	log   logging.Logger
	now   func() time.Time
}

func NewService(s store.Store, admins AdminLookup, auditor AuditWriter, log logging.Logger) *Service {
	return &Service{
		store: s,
		users: admins,
		audit: auditor,
		log:   log.With("component", "records"),
		now:   time.Now,
	}
}

// ParseCrops splits a comma separated crop list, dropping blanks.
func ParseCrops(s string) []string {
	crops := make([]string, 0)
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			crops = append(crops, c)
		}
	}
	return crops
}

func (s *Service) AddSoilType(ctx context.Context, adminUID string, in SoilTypeInput) (*models.SoilType, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if math.IsNaN(in.PH) || in.PH < 0 || in.PH > 14 {
		return nil, fmt.Errorf("%w: pH must be between 0 and 14", ErrInvalidInput)
	}

	crops := make([]string, 0, len(in.RecommendedCrops))
	for _, c := range in.RecommendedCrops {
		if c = strings.TrimSpace(c); c != "" {
			crops = append(crops, c)
		}
	}

	attr, err := s.attribution(ctx, adminUID)
	if err != nil {
		return nil, err
	}

	rec := &models.SoilType{
		Name:             in.Name,
		PH:               in.PH,
		Nutrients:        strings.TrimSpace(in.Nutrients),
		WaterRetention:   strings.TrimSpace(in.WaterRetention),
		RecommendedCrops: crops,
		Attribution:      attr,
	}
	id, err := s.create(ctx, SoilTypes, rec)
	if err != nil {
		return nil, err
	}
	rec.ID = id
	s.auditWrite(ctx, attr, audit.EntitySoilType, id, models.AuditActionCreate, "soil type added: "+rec.Name, nil, rec)
	return rec, nil
}

func (s *Service) AddDistributor(ctx context.Context, adminUID string, in DistributorInput) (*models.Distributor, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	attr, err := s.attribution(ctx, adminUID)
	if err != nil {
		return nil, err
	}

	rec := &models.Distributor{
		Name:        in.Name,
		Contact:     strings.TrimSpace(in.Contact),
		Location:    strings.TrimSpace(in.Location),
		Attribution: attr,
	}
	id, err := s.create(ctx, Distributors, rec)
	if err != nil {
		return nil, err
	}
	rec.ID = id
	s.auditWrite(ctx, attr, audit.EntityDistributor, id, models.AuditActionCreate, "distributor added: "+rec.Name, nil, rec)
	return rec, nil
}

// SoilTypes lists soil types oldest first. A non-empty adminUID narrows the
// list to that admin's records.
func (s *Service) SoilTypes(ctx context.Context, adminUID string) ([]models.SoilType, error) {
	return list[models.SoilType](ctx, s.store, SoilTypes, adminUID)
}

// Distributors lists distributors the same way SoilTypes does.
func (s *Service) Distributors(ctx context.Context, adminUID string) ([]models.Distributor, error) {
	return list[models.Distributor](ctx, s.store, Distributors, adminUID)
}

// Delete removes a record created by adminUID.
func (s *Service) Delete(ctx context.Context, kind Kind, id, adminUID string) error {
	entity, err := entityFor(kind)
	if err != nil {
		return err
	}

	doc, ok, err := s.store.Get(ctx, string(kind), id)
	if err != nil {
		return fmt.Errorf("load %s %s: %w", kind, id, err)
	}
	if !ok {
		return ErrNotFound
	}
	if owner, _ := doc.Fields[ownerField].(string); owner != adminUID {
		s.log.Warn(ctx, "delete refused for foreign record", "kind", kind, "id", id, "uid", adminUID)
		return ErrNotOwner
	}

	if err := s.store.Delete(ctx, string(kind), id); err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}

	name, _ := doc.Fields["name"].(string)
	actor, _ := doc.Fields["addedByAdminName"].(string)
	s.auditWrite(ctx, models.Attribution{AddedByAdminUID: adminUID, AddedByAdminName: actor},
		entity, id, models.AuditActionDelete, fmt.Sprintf("%s deleted: %s", entity, name), doc.Fields, nil)
	return nil
}

// attribution snapshots the admin's profile onto a new record.
func (s *Service) attribution(ctx context.Context, adminUID string) (models.Attribution, error) {
	rec, err := s.users.Get(ctx, adminUID)
	if errors.Is(err, users.ErrNotFound) {
		return models.Attribution{}, ErrNotAdmin
	}
	if err != nil {
		return models.Attribution{}, err
	}
	if rec.Role != models.RoleAdmin {
		return models.Attribution{}, ErrNotAdmin
	}

	name := rec.Name
	if name == "" {
		name = rec.Email
	}
	phone := rec.PhoneNumber
	if phone == "" {
		phone = "N/A"
	}
	return models.Attribution{
		AddedByAdminUID:         adminUID,
		AddedByAdminName:        name,
		AddedByAdminPhoneNumber: phone,
		CreatedAt:               s.now().UTC(),
	}, nil
}

func (s *Service) create(ctx context.Context, kind Kind, rec any) (string, error) {
	fields, err := store.FieldsOf(rec)
	if err != nil {
		return "", err
	}
	delete(fields, "id")

	id, err := s.store.Create(ctx, string(kind), fields)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", kind, err)
	}
	return id, nil
}

func (s *Service) auditWrite(ctx context.Context, actor models.Attribution, entity, key string, action models.AuditAction, desc string, before, after any) {
	err := s.audit.WriteLog(ctx, audit.LogOptions{
		UserID:      actor.AddedByAdminUID,
		UserName:    actor.AddedByAdminName,
		EntityType:  entity,
		EntityKey:   key,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
	if err != nil {
		s.log.Error(ctx, "audit log failed", "entity", entity, "key", key, "error", err)
	}
}

func list[T any](ctx context.Context, st store.Store, kind Kind, adminUID string) ([]T, error) {
	field := ""
	if adminUID != "" {
		field = ownerField
	}
	docs, err := st.Query(ctx, string(kind), field, adminUID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}

	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		doc.Fields["id"] = doc.Key
		var v T
		if err := doc.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func entityFor(kind Kind) (string, error) {
	switch kind {
	case SoilTypes:
		return audit.EntitySoilType, nil
	case Distributors:
		return audit.EntityDistributor, nil
	default:
		return "", ErrUnknownKind
	}
}
