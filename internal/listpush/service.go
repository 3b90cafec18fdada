// Package listpush mirrors local collection state onto the catalog account:
// aggregated missing parts onto a part list and owned sets onto a set list.
// Each push diffs the remote list against local state and only writes the
// lines that differ.
package listpush

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/osse101/BrickManager_Go/internal/concurrency"
	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/event"
	"github.com/osse101/BrickManager_Go/internal/logger"
	"github.com/osse101/BrickManager_Go/internal/reconcile"
)

// Lists is the account side of a push
type Lists interface {
	PushEnabled() bool

	PartLists(ctx context.Context) ([]domain.RemoteList, error)
	CreatePartList(ctx context.Context, name string) (domain.RemoteList, error)
	PartListParts(ctx context.Context, listID int64) ([]domain.ListPart, error)
	AddPartListParts(ctx context.Context, listID int64, parts []domain.ListPart) error
	DeletePartListPart(ctx context.Context, listID int64, partNum string, colorID int) error

	SetLists(ctx context.Context) ([]domain.RemoteList, error)
	CreateSetList(ctx context.Context, name string) (domain.RemoteList, error)
	SetListSets(ctx context.Context, listID int64) ([]domain.ListSet, error)
	AddSetListSets(ctx context.Context, listID int64, sets []domain.ListSet) error
	DeleteSetListSet(ctx context.Context, listID int64, setNum string) error
}

// MissingSource reports the local missing parts
type MissingSource interface {
	MissingAll(ctx context.Context, filter reconcile.Filter) ([]domain.MissingItem, error)
}

// OwnedSets lists the local owned sets
type OwnedSets interface {
	ListOwnedSets(ctx context.Context) ([]domain.OwnedSet, error)
}

// PartsOptions selects which missing parts are pushed and where
type PartsOptions struct {
	ListName        string
	Kind            domain.MissingKind // empty pushes both kinds
	IncludeSpares   bool
	Statuses        []domain.SetStatus
	ExcludeStatuses []domain.SetStatus
}

// SetsOptions names the set list owned sets are pushed to
type SetsOptions struct {
	ListName string
}

// Service defines the list push operations
type Service interface {
	// PushMissingParts makes the named part list hold exactly the summed
	// missing quantity of every (part, color)
	PushMissingParts(ctx context.Context, opts PartsOptions) (*domain.PushResult, error)
	// PushOwnedSets makes the named set list hold one line per set number
	// with the count of owned copies as quantity
	PushOwnedSets(ctx context.Context, opts SetsOptions) (*domain.PushResult, error)
}

type service struct {
	lists   Lists
	missing MissingSource
	sets    OwnedSets
	bus     event.Bus
	locks   *concurrency.LockManager
}

// NewService creates the push service. bus may be nil.
func NewService(lists Lists, missing MissingSource, sets OwnedSets, bus event.Bus) Service {
	return &service{
		lists:   lists,
		missing: missing,
		sets:    sets,
		bus:     bus,
		locks:   concurrency.NewLockManager(),
	}
}

func (s *service) PushMissingParts(ctx context.Context, opts PartsOptions) (*domain.PushResult, error) {
	if !s.lists.PushEnabled() {
		return nil, domain.ErrPushDisabled
	}
	if opts.Kind != "" && opts.Kind != domain.MissingKindPart && opts.Kind != domain.MissingKindMinifigPart {
		return nil, fmt.Errorf("%w: "+ErrMsgUnknownKind, domain.ErrValidation, opts.Kind)
	}
	name := listName(opts.ListName, DefaultPartListName)
	unlock := s.locks.Lock(lockKey(domain.PushMissingParts, name))
	defer unlock()

	spares := opts.IncludeSpares
	items, err := s.missing.MissingAll(ctx, reconcile.Filter{
		Statuses:        opts.Statuses,
		ExcludeStatuses: opts.ExcludeStatuses,
		IncludeSpares:   &spares,
	})
	if err != nil {
		return nil, err
	}
	local := make(map[string]domain.ListPart)
	for _, it := range items {
		if opts.Kind != "" && it.Kind != opts.Kind {
			continue
		}
		k := partKey(it.PartNum, it.ColorID)
		line := local[k]
		line.PartNum, line.ColorID = it.PartNum, it.ColorID
		line.Quantity += it.MissingQuantity
		local[k] = line
	}

	list, created, err := findOrCreate(ctx, name, s.lists.PartLists, s.lists.CreatePartList)
	if err != nil {
		return nil, err
	}
	current, err := s.lists.PartListParts(ctx, list.ID)
	if err != nil {
		return nil, err
	}
	remote := make(map[string]int, len(current))
	remoteLines := make(map[string]domain.ListPart, len(current))
	for _, p := range current {
		k := partKey(p.PartNum, p.ColorID)
		remote[k] += p.Quantity
		remoteLines[k] = p
	}

	res := newResult(domain.PushMissingParts, list, created, len(local), len(remote))
	ops := partOps{lists: s.lists, listID: list.ID, local: local, remote: remoteLines}
	s.apply(ctx, res, diff(quantities(local, func(p domain.ListPart) int { return p.Quantity }), remote), ops)
	return s.finish(ctx, res)
}

func (s *service) PushOwnedSets(ctx context.Context, opts SetsOptions) (*domain.PushResult, error) {
	if !s.lists.PushEnabled() {
		return nil, domain.ErrPushDisabled
	}
	name := listName(opts.ListName, DefaultSetListName)
	unlock := s.locks.Lock(lockKey(domain.PushOwnedSets, name))
	defer unlock()

	owned, err := s.sets.ListOwnedSets(ctx)
	if err != nil {
		return nil, err
	}
	local := make(map[string]int)
	for _, o := range owned {
		local[o.SetNum]++
	}

	list, created, err := findOrCreate(ctx, name, s.lists.SetLists, s.lists.CreateSetList)
	if err != nil {
		return nil, err
	}
	current, err := s.lists.SetListSets(ctx, list.ID)
	if err != nil {
		return nil, err
	}
	remote := make(map[string]int, len(current))
	for _, l := range current {
		remote[l.SetNum] += l.Quantity
	}

	res := newResult(domain.PushOwnedSets, list, created, len(local), len(remote))
	s.apply(ctx, res, diff(local, remote), setOps{lists: s.lists, listID: list.ID, local: local})
	return s.finish(ctx, res)
}

// finish publishes the result. A cancelled context is reported as an error
// since the remaining lines were never attempted.
func (s *service) finish(ctx context.Context, res *domain.PushResult) (*domain.PushResult, error) {
	log := logger.FromContext(ctx)
	if err := ctx.Err(); err != nil {
		return res, err
	}
	log.Info(LogMsgPushFinished,
		logger.AttrKeyTarget, res.Target,
		logger.AttrKeyListID, res.ListID,
		"added", res.Added,
		"updated", res.Updated,
		"removed", res.Removed,
		"failed", len(res.Failed))

	if s.bus != nil {
		if err := s.bus.Publish(ctx, event.NewListPushedEvent(res)); err != nil {
			log.Warn(LogMsgFailedToPublishEvent, "error", err)
		}
	}
	return res, nil
}

// plan is the set of writes that turns the remote list into the local one
type plan struct {
	add       []string
	update    []string
	remove    []string
	unchanged int
}

func diff(local, remote map[string]int) plan {
	var p plan
	for k, q := range local {
		rq, ok := remote[k]
		switch {
		case !ok:
			p.add = append(p.add, k)
		case rq != q:
			p.update = append(p.update, k)
		default:
			p.unchanged++
		}
	}
	for k := range remote {
		if _, ok := local[k]; !ok {
			p.remove = append(p.remove, k)
		}
	}
	sort.Strings(p.add)
	sort.Strings(p.update)
	sort.Strings(p.remove)
	return p
}

// listOps writes lines of one remote list, addressed by key
type listOps interface {
	remove(ctx context.Context, key string) error
	add(ctx context.Context, keys []string) error
}

// apply removes stale lines, then replaces changed lines by removing and
// re-adding them, then adds new ones. A failed line is recorded and the push
// carries on with the rest.
func (s *service) apply(ctx context.Context, res *domain.PushResult, p plan, ops listOps) {
	res.Unchanged = p.unchanged

	for _, k := range p.remove {
		if ctx.Err() != nil {
			return
		}
		if err := ops.remove(ctx, k); err != nil {
			s.fail(ctx, res, k, err)
			continue
		}
		res.Removed++
	}

	readd := make([]string, 0, len(p.update))
	for _, k := range p.update {
		if ctx.Err() != nil {
			return
		}
		if err := ops.remove(ctx, k); err != nil {
			s.fail(ctx, res, k, err)
			continue
		}
		readd = append(readd, k)
	}

	res.Added += s.addAll(ctx, res, ops, p.add)
	res.Updated += s.addAll(ctx, res, ops, readd)
}

// addAll sends keys in batches; a rejected batch is retried line by line so
// one unknown part does not sink its neighbours
func (s *service) addAll(ctx context.Context, res *domain.PushResult, ops listOps, keys []string) int {
	added := 0
	for lo := 0; lo < len(keys); lo += BatchSize {
		if ctx.Err() != nil {
			return added
		}
		batch := keys[lo:min(lo+BatchSize, len(keys))]
		err := ops.add(ctx, batch)
		if err == nil {
			added += len(batch)
			continue
		}
		logger.FromContext(ctx).Warn(LogMsgBatchRejected, logger.AttrKeyTarget, res.Target, "lines", len(batch), "error", err)
		for _, k := range batch {
			if ctx.Err() != nil {
				return added
			}
			if err := ops.add(ctx, []string{k}); err != nil {
				s.fail(ctx, res, k, err)
				continue
			}
			added++
		}
	}
	return added
}

func (s *service) fail(ctx context.Context, res *domain.PushResult, key string, err error) {
	logger.FromContext(ctx).Warn(LogMsgLineFailed, logger.AttrKeyTarget, res.Target, "key", key, "error", err)
	res.Failed = append(res.Failed, key)
}

type partOps struct {
	lists  Lists
	listID int64
	local  map[string]domain.ListPart
	remote map[string]domain.ListPart
}

func (o partOps) remove(ctx context.Context, key string) error {
	p, ok := o.remote[key]
	if !ok {
		p = o.local[key]
	}
	return o.lists.DeletePartListPart(ctx, o.listID, p.PartNum, p.ColorID)
}

func (o partOps) add(ctx context.Context, keys []string) error {
	parts := make([]domain.ListPart, len(keys))
	for i, k := range keys {
		parts[i] = o.local[k]
	}
	return o.lists.AddPartListParts(ctx, o.listID, parts)
}

type setOps struct {
	lists  Lists
	listID int64
	local  map[string]int
}

func (o setOps) remove(ctx context.Context, key string) error {
	return o.lists.DeleteSetListSet(ctx, o.listID, key)
}

func (o setOps) add(ctx context.Context, keys []string) error {
	sets := make([]domain.ListSet, len(keys))
	for i, k := range keys {
		sets[i] = domain.ListSet{SetNum: k, Quantity: o.local[k]}
	}
	return o.lists.AddSetListSets(ctx, o.listID, sets)
}

// findOrCreate returns the first list called name, creating it when absent
func findOrCreate(
	ctx context.Context,
	name string,
	list func(context.Context) ([]domain.RemoteList, error),
	create func(context.Context, string) (domain.RemoteList, error),
) (domain.RemoteList, bool, error) {
	lists, err := list(ctx)
	if err != nil {
		return domain.RemoteList{}, false, err
	}
	for _, l := range lists {
		if l.Name == name {
			return l, false, nil
		}
	}
	created, err := create(ctx, name)
	if err != nil {
		return domain.RemoteList{}, false, err
	}
	if created.Name == "" {
		created.Name = name
	}
	return created, true, nil
}

func newResult(target domain.PushTarget, list domain.RemoteList, created bool, local, remote int) *domain.PushResult {
	return &domain.PushResult{
		Target:      target,
		ListID:      list.ID,
		ListName:    list.Name,
		ListCreated: created,
		Local:       local,
		Remote:      remote,
		Failed:      []string{},
	}
}

func quantities[T any](m map[string]T, qty func(T) int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = qty(v)
	}
	return out
}

func partKey(partNum string, colorID int) string {
	return partNum + "/" + strconv.Itoa(colorID)
}

func listName(name, fallback string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return fallback
}

func lockKey(target domain.PushTarget, name string) string {
	return "push:" + string(target) + ":" + name
}
