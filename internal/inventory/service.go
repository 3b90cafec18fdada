package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/event"
	"github.com/osse101/BrickManager_Go/internal/logger"
	"github.com/osse101/BrickManager_Go/internal/repository"
)

// Service defines the owned set lifecycle
type Service interface {
	AddSet(ctx context.Context, setNum string, status domain.SetStatus) (*domain.OwnedSetDetail, error)
	GetOwnedSet(ctx context.Context, id int64) (*domain.OwnedSetDetail, error)
	ListOwnedSets(ctx context.Context) ([]domain.OwnedSet, error)
	UpdateStatus(ctx context.Context, id int64, status domain.SetStatus) error
	RemoveSet(ctx context.Context, id int64) error

	SetPartHave(ctx context.Context, ownedPartID int64, have int) (*domain.OwnedPart, error)
	AdjustPartHave(ctx context.Context, ownedPartID int64, delta int) (*domain.OwnedPart, error)
	SetMinifigPartHave(ctx context.Context, id int64, have int) (*domain.OwnedMinifigPart, error)
	SetMinifigHave(ctx context.Context, id int64, have int) (*domain.OwnedMinifig, error)
}

// TemplateSyncer fetches a set's compositions on demand
type TemplateSyncer interface {
	SyncSetTemplate(ctx context.Context, setNum string) ([]domain.SyncResult, error)
}

type service struct {
	catalog   repository.Catalog
	syncState repository.SyncState
	repo      repository.Inventory
	syncer    TemplateSyncer
	bus       event.Bus
}

// NewService creates the inventory service. syncer and bus may be nil; without
// a syncer, sets can only be added once their compositions were synced.
func NewService(
	catalog repository.Catalog,
	syncState repository.SyncState,
	repo repository.Inventory,
	syncer TemplateSyncer,
	bus event.Bus,
) Service {
	return &service{
		catalog:   catalog,
		syncState: syncState,
		repo:      repo,
		syncer:    syncer,
		bus:       bus,
	}
}

// NormalizeSetNum trims the number and adds the default variant when the
// caller gave a bare number ("7140" becomes "7140-1")
func NormalizeSetNum(setNum string) string {
	setNum = strings.TrimSpace(setNum)
	if setNum == "" || strings.Contains(setNum, "-") {
		return setNum
	}
	return setNum + DefaultSetVariant
}

// AddSet registers a physical copy of a catalog set. Every part and
// minifigure part starts with a have quantity of zero.
func (s *service) AddSet(ctx context.Context, setNum string, status domain.SetStatus) (*domain.OwnedSetDetail, error) {
	log := logger.FromContext(ctx)

	setNum = NormalizeSetNum(setNum)
	if setNum == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, ErrMsgEmptySetNum)
	}
	if status == "" {
		status = domain.StatusUnknown
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}

	if _, err := s.catalog.GetSet(ctx, setNum); err != nil {
		return nil, err
	}
	if err := s.ensureTemplate(ctx, setNum); err != nil {
		return nil, err
	}

	newSet, err := s.buildOwnedSet(ctx, setNum, status)
	if err != nil {
		return nil, err
	}

	detail, err := s.repo.CreateOwnedSet(ctx, *newSet)
	if err != nil {
		return nil, err
	}

	log.Info(LogMsgSetAdded,
		logger.AttrKeyOwnedSetID, detail.ID,
		logger.AttrKeySetNum, setNum,
		"parts", len(detail.Parts),
		"minifigs", len(detail.Minifigs))
	s.publish(ctx, event.NewOwnedSetAddedEvent(detail))
	return detail, nil
}

// ensureTemplate makes sure the part list, the minifigure list and each
// minifigure's composition were fully synced without rejected rows. A
// composition with rejected rows would produce an owned set that silently
// lacks those parts.
func (s *service) ensureTemplate(ctx context.Context, setNum string) error {
	missing, err := s.templateGap(ctx, setNum)
	if err != nil || missing == "" {
		return err
	}
	if s.syncer == nil {
		return fmt.Errorf("%w: %s", domain.ErrTemplateNotSynced, missing)
	}

	logger.FromContext(ctx).Info(LogMsgSyncingTemplate, logger.AttrKeySetNum, setNum, "gap", missing)
	results, err := s.syncer.SyncSetTemplate(ctx, setNum)
	if err != nil {
		return fmt.Errorf(ErrMsgTemplateSyncFail, setNum, err)
	}
	if failed := rejectedRows(results); len(failed) > 0 {
		return fmt.Errorf("%w: "+ErrMsgTemplateRowsRejected, domain.ErrTemplateNotSynced, setNum, strings.Join(failed, ", "))
	}

	missing, err = s.templateGap(ctx, setNum)
	if err != nil {
		return err
	}
	if missing != "" {
		return fmt.Errorf("%w: %s", domain.ErrTemplateNotSynced, missing)
	}
	return nil
}

// templateGap describes the first unsynced composition, or "" when none
func (s *service) templateGap(ctx context.Context, setNum string) (string, error) {
	for _, kind := range []domain.EntityKind{domain.KindSetParts, domain.KindSetMinifigs} {
		ok, err := s.synced(ctx, kind, setNum)
		if err != nil {
			return "", err
		}
		if !ok {
			return fmt.Sprintf(ErrMsgSetPartsNotSynced, setNum), nil
		}
	}

	figs, err := s.catalog.ListSetMinifigs(ctx, setNum)
	if err != nil {
		return "", err
	}
	for _, fig := range figs {
		ok, err := s.synced(ctx, domain.KindMinifigParts, fig.FigNum)
		if err != nil {
			return "", err
		}
		if !ok {
			return fmt.Sprintf(ErrMsgMinifigNotSynced, fig.FigNum), nil
		}
	}
	return "", nil
}

// synced reports whether the last run of kind/scope reached the end with
// every row stored
func (s *service) synced(ctx context.Context, kind domain.EntityKind, scope string) (bool, error) {
	st, err := s.syncState.GetSyncState(ctx, kind, scope)
	if err != nil {
		return false, err
	}
	return st != nil && st.Completed && st.Failed == 0, nil
}

func rejectedRows(results []domain.SyncResult) []string {
	var failed []string
	for _, res := range results {
		if res.Kind.Scoped() {
			failed = append(failed, res.FailedIDs...)
		}
	}
	return failed
}

func (s *service) buildOwnedSet(ctx context.Context, setNum string, status domain.SetStatus) (*domain.NewOwnedSet, error) {
	setParts, err := s.catalog.ListSetParts(ctx, setNum)
	if err != nil {
		return nil, err
	}
	setFigs, err := s.catalog.ListSetMinifigs(ctx, setNum)
	if err != nil {
		return nil, err
	}

	out := &domain.NewOwnedSet{
		SetNum:   setNum,
		Status:   status,
		Parts:    make([]domain.OwnedPart, 0, len(setParts)),
		Minifigs: make([]domain.OwnedMinifig, 0, len(setFigs)),
	}
	for _, p := range setParts {
		out.Parts = append(out.Parts, domain.OwnedPart{
			PartNum:          p.PartNum,
			ColorID:          p.ColorID,
			RequiredQuantity: p.Quantity,
			IsSpare:          p.IsSpare,
		})
	}

	for i, fig := range setFigs {
		out.Minifigs = append(out.Minifigs, domain.OwnedMinifig{
			FigNum:   fig.FigNum,
			Quantity: fig.Quantity,
		})

		figParts, err := s.catalog.ListMinifigParts(ctx, fig.FigNum)
		if err != nil {
			return nil, err
		}
		for _, p := range figParts {
			// A set with two copies of a figure needs every component twice
			out.MinifigParts = append(out.MinifigParts, domain.NewOwnedMinifigPart{
				MinifigIndex: i,
				OwnedMinifigPart: domain.OwnedMinifigPart{
					PartNum:          p.PartNum,
					ColorID:          p.ColorID,
					RequiredQuantity: p.Quantity * fig.Quantity,
					IsSpare:          p.IsSpare,
				},
			})
		}
	}
	return out, nil
}

func (s *service) GetOwnedSet(ctx context.Context, id int64) (*domain.OwnedSetDetail, error) {
	return s.repo.GetOwnedSetDetail(ctx, id)
}

func (s *service) ListOwnedSets(ctx context.Context) ([]domain.OwnedSet, error) {
	return s.repo.ListOwnedSets(ctx)
}

func (s *service) UpdateStatus(ctx context.Context, id int64, status domain.SetStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}
	if err := s.repo.UpdateOwnedSetStatus(ctx, id, status); err != nil {
		return err
	}
	logger.FromContext(ctx).Info(LogMsgStatusUpdated, logger.AttrKeyOwnedSetID, id, "status", status)
	return nil
}

// RemoveSet deletes the owned set together with its part and minifigure rows
func (s *service) RemoveSet(ctx context.Context, id int64) error {
	set, err := s.repo.GetOwnedSet(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteOwnedSet(ctx, id); err != nil {
		return err
	}
	logger.FromContext(ctx).Info(LogMsgSetRemoved, logger.AttrKeyOwnedSetID, id, logger.AttrKeySetNum, set.SetNum)
	s.publish(ctx, event.NewOwnedSetRemovedEvent(set))
	return nil
}

func (s *service) SetPartHave(ctx context.Context, ownedPartID int64, have int) (*domain.OwnedPart, error) {
	if have < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if err := domain.CheckStoredInt("have", have); err != nil {
		return nil, err
	}
	return s.repo.SetPartHave(ctx, ownedPartID, have)
}

// AdjustPartHave adds delta to the have quantity; the store rejects a result
// below zero without changing anything
func (s *service) AdjustPartHave(ctx context.Context, ownedPartID int64, delta int) (*domain.OwnedPart, error) {
	if err := domain.CheckStoredInt("delta", delta); err != nil {
		return nil, err
	}
	return s.repo.AdjustPartHave(ctx, ownedPartID, delta)
}

func (s *service) SetMinifigPartHave(ctx context.Context, id int64, have int) (*domain.OwnedMinifigPart, error) {
	if have < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if err := domain.CheckStoredInt("have", have); err != nil {
		return nil, err
	}
	return s.repo.SetMinifigPartHave(ctx, id, have)
}

func (s *service) SetMinifigHave(ctx context.Context, id int64, have int) (*domain.OwnedMinifig, error) {
	if have < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if err := domain.CheckStoredInt("have", have); err != nil {
		return nil, err
	}
	return s.repo.SetMinifigHave(ctx, id, have)
}

func (s *service) publish(ctx context.Context, evt event.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, evt); err != nil {
		logger.FromContext(ctx).Warn(LogMsgFailedToPublishEvent, "type", evt.Type, "error", err)
	}
}
